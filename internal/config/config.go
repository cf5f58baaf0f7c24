// Package config loads application settings from the environment using viper.
//
// Every component receives the values it needs from a Config at construction
// time; nothing reads process-wide globals after startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DevSessionSecret is used when SESSION_SECRET is not set. It is only meant for
// local development.
const DevSessionSecret = "change-me-in-production-please-0f3c9a"

// Config holds all runtime settings.
type Config struct {
	AppPort string

	DBDriver    string
	DatabaseDSN string

	UploadDir      string
	StaticDir      string
	MaxUploadBytes int
	// ChartTTL is how long generated charts are kept. Zero keeps them forever.
	ChartTTL time.Duration

	SessionSecret string
	SessionTTL    time.Duration
	BcryptCost    int

	RabbitMQURL   string
	RabbitMQQueue string

	RedisAddr string
	RedisDB   int

	LogLevel  string
	LogPretty bool
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "database.db")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("STATIC_DIR", "static")
	v.SetDefault("MAX_UPLOAD_BYTES", 10*1024*1024)
	v.SetDefault("SESSION_SECRET", DevSessionSecret)
	v.SetDefault("CHART_TTL", "1h")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "analysis_events")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
}

// Load reads the configuration from v. Defaults are registered and environment
// variables are bound before reading.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		StaticDir:      v.GetString("STATIC_DIR"),
		MaxUploadBytes: v.GetInt("MAX_UPLOAD_BYTES"),
		SessionSecret:  v.GetString("SESSION_SECRET"),
		ChartTTL:       v.GetDuration("CHART_TTL"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:  v.GetString("RABBITMQ_QUEUE"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisDB:        v.GetInt("REDIS_DB"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogPretty:      v.GetBool("LOG_PRETTY"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.ChartTTL < 0 {
		return fmt.Errorf("CHART_TTL must not be negative, got %s", c.ChartTTL)
	}
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN must not be empty")
	}
	if c.UploadDir == "" || c.StaticDir == "" {
		return fmt.Errorf("UPLOAD_DIR and STATIC_DIR must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// UsesDevSecret reports whether the built-in development secret is in use.
func (c *Config) UsesDevSecret() bool {
	return c.SessionSecret == DevSessionSecret
}
