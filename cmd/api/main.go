// @title        EnergiSense API
// @version      1.0
// @description  Industrial energy-consumption monitoring: reading ingestion, latest-window queries and role-based accounts.
// @host         localhost:5000
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "energisense/docs"
	"energisense/internal/config"
	"energisense/internal/handlers"
	"energisense/internal/ingest"
	"energisense/internal/logger"
	"energisense/internal/metrics"
	"energisense/internal/models"
	"energisense/internal/repository"
	"energisense/internal/repository/db"
	"energisense/internal/server"
	"energisense/internal/service"

	"github.com/spf13/viper"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// load .env, configs/config.yml and the environment
	cfg, err := config.Load(viper.New())
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open storage
	repos, closeStore, err := openStore(cfg.Storage, log)
	if err != nil {
		log.Fatalw("failed to init storage", "driver", cfg.Storage.Driver, "err", err)
	}
	defer closeStore()

	// wire dependencies
	m := metrics.New()
	services := service.NewService(repos, service.Options{
		Auth: service.AuthOptions{
			Secret:     cfg.Auth.JWTSecret,
			TokenTTL:   cfg.Auth.TokenTTL,
			BcryptCost: cfg.Auth.BcryptCost,
		},
		ReadingsWindow: cfg.ReadingsWindow,
		OnIngest: func(r models.Reading) {
			log.Debugw("reading_ingested", "id", r.ID, "value", r.Value, "sensor", r.SensorID)
		},
	})
	seedAdmin(services, cfg, log)

	apiHandler := handlers.NewHandler(services, log.Named("http"),
		handlers.WithMetrics(m),
		handlers.WithOpenRegistration(cfg.Auth.OpenRegistration),
		handlers.WithStaticDir(cfg.StaticDir),
		handlers.WithIngestLimit(cfg.IngestRate, cfg.IngestBurst),
	)

	// optional broker ingestion
	if cfg.MQTT.Enabled {
		sub, err := ingest.Connect(ingest.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		}, services, m, log.Named("mqtt"))
		if err != nil {
			log.Errorw("mqtt_disabled", "broker", cfg.MQTT.Broker, "err", err)
		} else {
			defer sub.Close()
		}
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("server_started", "port", cfg.Port, "storage", cfg.Storage.Driver)

	// graceful shutdown
	waitForShutdown(srv, log)
}

// openStore connects the configured backend and returns its repositories
// together with a close function.
func openStore(sc config.StorageConfig, log *logger.Logger) (*repository.Repository, func(), error) {
	switch sc.Driver {
	case config.DriverSQLite:
		sqlDB, err := db.InitDB(sc.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Errorw("failed to close sqlite", "err", cerr)
			}
		}
		return repository.NewRepository(sqlDB), closeFn, nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		client, mdb, err := db.ConnectMongo(ctx, sc.MongoURI, sc.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if cerr := client.Disconnect(ctx); cerr != nil {
				log.Errorw("failed to disconnect mongo", "err", cerr)
			}
		}
		return repository.NewMongoRepository(mdb), closeFn, nil
	}
}

// seedAdmin creates the bootstrap admin on an empty accounts collection.
func seedAdmin(services *service.Service, cfg *config.Config, log *logger.Logger) {
	if cfg.BootstrapEmail == "" || cfg.BootstrapPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	created, err := services.EnsureAdmin(ctx, cfg.BootstrapEmail, cfg.BootstrapPassword)
	if err != nil {
		log.Fatalw("failed to seed admin", "err", err)
	}
	if created {
		log.Warnw("bootstrap_admin_created", "email", cfg.BootstrapEmail)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
