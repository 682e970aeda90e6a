package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	NATSSubjectBase  string
	JWTSecret        string
	JWTExpiry        time.Duration
	StatsCacheTTL    time.Duration
	LogRetentionDays int
	LogRetentionCron string
	LoginRateMax     int
	LoginRateWindow  time.Duration
	DefaultPageSize  int
	MaxPageSize      int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs in a development environment.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ULPD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ULPD Student Records API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject_base", "ulpdsrd")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("stats.cache_ttl", "2m")
	v.SetDefault("log.retention_days", 30)
	v.SetDefault("login.rate_max", 10)
	v.SetDefault("login.rate_window", "1m")
	v.SetDefault("page.default_size", 10)
	v.SetDefault("page.max_size", 100)

	expiry, err := time.ParseDuration(v.GetString("jwt.expiry"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt expiry: %w", err)
	}

	statsTTL, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("login.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		NATSSubjectBase:  v.GetString("nats.subject_base"),
		JWTSecret:        v.GetString("jwt.secret"),
		JWTExpiry:        expiry,
		StatsCacheTTL:    statsTTL,
		LogRetentionDays: v.GetInt("log.retention_days"),
		LogRetentionCron: v.GetString("log.retention_cron"),
		LoginRateMax:     v.GetInt("login.rate_max"),
		LoginRateWindow:  rateWindow,
		DefaultPageSize:  v.GetInt("page.default_size"),
		MaxPageSize:      v.GetInt("page.max_size"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.LogRetentionDays <= 0 {
		cfg.LogRetentionDays = 30
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}

	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}

	return cfg, nil
}
