package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	StorageMongo  = "mongo"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

const (
	TracingNone   = "none"
	TracingStdout = "stdout"
	TracingOTLP   = "otlp"
)

type Config struct {
	Port            string        `env:"PORT" env-default:"5000"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	ServiceName     string        `env:"SERVICE_NAME" env-default:"todo-api"`
	StorageDriver   string        `env:"STORAGE_DRIVER" env-default:"mongo"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	Mongo           MongoConfig
	SQLite          SQLiteConfig
	HTTP            HTTPConfig
	RateLimit       RateLimitConfig
	Tracing         TracingConfig
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DATABASE" env-default:"todo-app"`
	Collection     string        `env:"MONGO_COLLECTION" env-default:"todos"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"MONGO_PING_TIMEOUT" env-default:"10s"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" env-default:"data/todos.db"`
}

// HTTPConfig holds the cross-origin and body-parsing options of the router.
type HTTPConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	MaxBodyBytes   int64    `env:"MAX_BODY_BYTES" env-default:"1048576"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" env-default:"0"`
	Burst int     `env:"RATE_LIMIT_BURST" env-default:"20"`
}

type TracingConfig struct {
	Exporter string `env:"TRACING_EXPORTER" env-default:"none"`
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case StorageMongo, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
	switch c.Tracing.Exporter {
	case TracingNone, TracingStdout, TracingOTLP:
	default:
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.Tracing.Exporter)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}

	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	return nil
}
