// Package config loads service settings from the environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort string
	AppEnv  string

	LogLevel string

	DatabaseDriver string
	DatabaseDSN    string

	// RedisAddr selects the redis listing cache; empty keeps the cache in process.
	RedisAddr string
	CacheTTL  time.Duration

	// RabbitMQURL enables publishing pipeline events; empty disables it.
	RabbitMQURL      string
	RabbitMQExchange string

	// JWTSecret guards the write routes; empty leaves them open.
	JWTSecret string
	TokenTTL  time.Duration

	// TracingExporter is "", "stdout" or "otlp".
	TracingExporter string
	OTLPEndpoint    string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "catalog.db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "catalog.events")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("TRACING_EXPORTER", "")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
}

// Load reads envFiles into the process environment when they exist, then
// resolves every setting from the environment over the defaults.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		AppEnv:           v.GetString("APP_ENV"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		DatabaseDriver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		TracingExporter:  strings.ToLower(v.GetString("TRACING_EXPORTER")),
		OTLPEndpoint:     v.GetString("OTLP_ENDPOINT"),
		RateLimitMax:     v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow:  v.GetDuration("RATE_LIMIT_WINDOW"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.TracingExporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("unsupported TRACING_EXPORTER %q", c.TracingExporter)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}
