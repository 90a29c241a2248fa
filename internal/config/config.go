package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config is the resolved runtime configuration of the API server.
type Config struct {
	Port string
	Log  LogConfig

	Storage StorageConfig
	Auth    AuthConfig

	BootstrapEmail    string
	BootstrapPassword string

	ReadingsWindow int
	IngestRate     float64
	IngestBurst    int

	StaticDir string
	MQTT      MQTTConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type StorageConfig struct {
	Driver     string
	MongoURI   string
	MongoDB    string
	SQLitePath string
}

type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	BcryptCost       int
	OpenRegistration bool
}

type MQTTConfig struct {
	Enabled  bool
	Broker   string
	Topic    string
	ClientID string
}

// maxReadingsWindow caps the latest-readings window.
const maxReadingsWindow = 100

// env bindings for keys whose variable names predate the config file.
var envBindings = map[string]string{
	"port":                     "PORT",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
	"storage.driver":           "STORAGE_DRIVER",
	"mongo.uri":                "MONGO_URI",
	"mongo.database":           "MONGO_DB",
	"sqlite.path":              "SQLITE_PATH",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.token_ttl":           "TOKEN_TTL",
	"auth.open_registration":   "OPEN_REGISTRATION",
	"bootstrap.admin_email":    "ADMIN_EMAIL",
	"bootstrap.admin_password": "ADMIN_PASSWORD",
	"mqtt.enabled":             "MQTT_ENABLED",
	"mqtt.broker":              "MQTT_BROKER",
}

// SetDefaults registers the in-source defaults. They are meant for local
// runs only; the JWT secret in particular must be overridden in deployment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("storage.driver", DriverMongo)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "energisense_db")
	v.SetDefault("sqlite.path", "energisense.db")

	v.SetDefault("auth.jwt_secret", "energisense-dev-secret")
	v.SetDefault("auth.token_ttl", "5h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.open_registration", false)

	v.SetDefault("bootstrap.admin_email", "admin@energisense.local")
	v.SetDefault("bootstrap.admin_password", "admin123")

	v.SetDefault("readings.window", 50)
	v.SetDefault("ingest.rate_per_sec", 0)
	v.SetDefault("ingest.burst", 20)

	v.SetDefault("http.static_dir", "public")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "energisense/readings")
	v.SetDefault("mqtt.client_id", "energisense-api")
}

// Load reads .env (if present), configs/config.yml (if present) and the
// environment, in increasing order of precedence.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper resolves and validates a Config from an already populated viper.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port: v.GetString("port"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
			MongoURI:   v.GetString("mongo.uri"),
			MongoDB:    v.GetString("mongo.database"),
			SQLitePath: v.GetString("sqlite.path"),
		},
		Auth: AuthConfig{
			JWTSecret:        v.GetString("auth.jwt_secret"),
			TokenTTL:         v.GetDuration("auth.token_ttl"),
			BcryptCost:       v.GetInt("auth.bcrypt_cost"),
			OpenRegistration: v.GetBool("auth.open_registration"),
		},
		BootstrapEmail:    v.GetString("bootstrap.admin_email"),
		BootstrapPassword: v.GetString("bootstrap.admin_password"),
		ReadingsWindow:    v.GetInt("readings.window"),
		IngestRate:        v.GetFloat64("ingest.rate_per_sec"),
		IngestBurst:       v.GetInt("ingest.burst"),
		StaticDir:         v.GetString("http.static_dir"),
		MQTT: MQTTConfig{
			Enabled:  v.GetBool("mqtt.enabled"),
			Broker:   v.GetString("mqtt.broker"),
			Topic:    v.GetString("mqtt.topic"),
			ClientID: v.GetString("mqtt.client_id"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as runtime failures.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("mongo.uri must be set for the mongo driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("sqlite.path must be set for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.ReadingsWindow < 1 || c.ReadingsWindow > maxReadingsWindow {
		return fmt.Errorf("readings.window must be in [1, %d], got %d", maxReadingsWindow, c.ReadingsWindow)
	}
	if c.IngestRate < 0 {
		return fmt.Errorf("ingest.rate_per_sec must be >= 0, got %v", c.IngestRate)
	}
	if c.MQTT.Enabled && (c.MQTT.Broker == "" || c.MQTT.Topic == "") {
		return errors.New("mqtt.broker and mqtt.topic must be set when mqtt is enabled")
	}
	return nil
}
