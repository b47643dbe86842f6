package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Query     QueryConfig     `mapstructure:"query"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// StoreConfig selects the trip store: "postgres" or "badger".
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	BadgerPath string `mapstructure:"badger_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
	// StationTTL is how long a resolved station id stays cached, in seconds.
	StationTTL int `mapstructure:"station_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// GatewayConfig holds the base URLs of the downstream services.
type GatewayConfig struct {
	RouteURL   string `mapstructure:"route_url"`
	TrainURL   string `mapstructure:"train_url"`
	StationURL string `mapstructure:"station_url"`
	SeatURL    string `mapstructure:"seat_url"`
	BasicURL   string `mapstructure:"basic_url"`
	OrderURL   string `mapstructure:"order_url"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
}

// Timeout is the per-call deadline for downstream requests.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMS) * time.Millisecond
}

// QueryConfig sizes the shared worker pool used by parallel queries.
type QueryConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment variables.
func Load(service string) (*Config, error) {
	// .env is optional and never overrides variables already set
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 12346)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.badger_path", "/tmp/travel-badger")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "travel")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "ts")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.station_ttl", 600)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("gateway.route_url", "http://ts-route-service:11178")
	v.SetDefault("gateway.train_url", "http://ts-train-service:14567")
	v.SetDefault("gateway.station_url", "http://ts-station-service:12345")
	v.SetDefault("gateway.seat_url", "http://ts-seat-service:18898")
	v.SetDefault("gateway.basic_url", "http://ts-basic-service:15680")
	v.SetDefault("gateway.order_url", "http://ts-order-service:12031")
	v.SetDefault("gateway.timeout_ms", 3000)
	v.SetDefault("query.workers", 20)
	v.SetDefault("query.queue_size", 256)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "trip-import-queue")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TRAVEL_GATEWAY_ROUTE_URL → gateway.route_url
	v.SetEnvPrefix("TRAVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	switch c.Store.Driver {
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case "badger":
		if c.Store.BadgerPath == "" {
			errs = append(errs, "store.badger_path is required for the badger driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be postgres or badger, got %q", c.Store.Driver))
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	for _, u := range []struct{ name, url string }{
		{"gateway.route_url", c.Gateway.RouteURL},
		{"gateway.train_url", c.Gateway.TrainURL},
		{"gateway.station_url", c.Gateway.StationURL},
		{"gateway.seat_url", c.Gateway.SeatURL},
		{"gateway.basic_url", c.Gateway.BasicURL},
		{"gateway.order_url", c.Gateway.OrderURL},
	} {
		if u.url == "" {
			errs = append(errs, u.name+" is required")
		}
	}
	if c.Gateway.TimeoutMS <= 0 {
		errs = append(errs, "gateway.timeout_ms must be positive")
	}
	if c.Query.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("query.workers must be positive, got %d", c.Query.Workers))
	}
	if c.Query.QueueSize < 0 {
		errs = append(errs, "query.queue_size must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
