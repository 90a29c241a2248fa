// Command injector posts a synthetic reading to the API every few seconds.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"energisense/internal/apiclient"
	"energisense/internal/injector"
	"energisense/internal/logger"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	pflag.String("api", "http://localhost:5000", "API base URL")
	pflag.Duration("interval", injector.DefaultInterval, "time between readings")
	pflag.String("sensor", injector.DefaultSensorID, "sensor id sent with each reading")
	pflag.String("log-level", logger.InfoLevel, "log level")
	pflag.Parse()

	v := viper.New()
	_ = v.BindPFlags(pflag.CommandLine)
	v.SetEnvPrefix("INJECTOR")
	_ = v.BindEnv("api", "INJECTOR_API_URL")
	v.AutomaticEnv()

	log := logger.Get(v.GetString("log-level")).Named("injector")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inj := injector.New(apiclient.New(v.GetString("api"), nil), log,
		injector.WithSensorID(v.GetString("sensor")))

	log.Infow("injector_started", "api", v.GetString("api"), "interval", v.GetDuration("interval"))
	inj.Run(ctx, v.GetDuration("interval"))
	log.Infow("injector_stopped")
}
