// Command dashboard is a terminal dashboard for EnergiSense. Log in once with
// --email/--password; later runs reuse the stored session until it expires.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"energisense/internal/apiclient"
	"energisense/internal/dashboard"
	"energisense/internal/logger"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".energisense-session.json"
	}
	return filepath.Join(dir, "energisense", "session.json")
}

func main() {
	pflag.String("api", "http://localhost:5000", "API base URL")
	pflag.String("session", defaultSessionPath(), "session file")
	pflag.Duration("interval", dashboard.DefaultInterval, "poll interval")
	pflag.String("email", "", "log in with this email before polling")
	pflag.String("password", "", "password for --email (or DASHBOARD_PASSWORD)")
	pflag.Bool("logout", false, "clear the stored session and exit")
	pflag.String("log-level", logger.WarnLevel, "log level")
	pflag.Parse()

	v := viper.New()
	_ = v.BindPFlags(pflag.CommandLine)
	v.SetEnvPrefix("DASHBOARD")
	v.AutomaticEnv()

	log := logger.Get(v.GetString("log-level")).Named("dashboard")
	defer func() { _ = log.Sync() }()

	store := dashboard.NewFileStore(v.GetString("session"))
	if v.GetBool("logout") {
		if err := store.Clear(); err != nil {
			log.Fatalw("logout failed", "err", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(v.GetString("api"), nil)
	if email := v.GetString("email"); email != "" {
		sess, err := dashboard.Login(ctx, client, store, email, v.GetString("password"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "login failed:", err)
			os.Exit(1)
		}
		fmt.Printf("logged in as %s (%s)\n", sess.Email, sess.Role)
	}

	d := dashboard.New(client, store, os.Stdout, log, v.GetDuration("interval"))
	if err := d.Run(ctx); err != nil {
		if errors.Is(err, dashboard.ErrNoSession) || errors.Is(err, dashboard.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "run again with --email and --password")
			os.Exit(2)
		}
		log.Fatalw("dashboard stopped", "err", err)
	}
}
