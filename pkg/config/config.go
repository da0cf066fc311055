package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, loaded from the
// environment with an optional .env file for local development.
type Config struct {
	DatabaseURL  string `mapstructure:"PGSQL_URL"`
	ServerPort   string `mapstructure:"PORT"`
	IsProduction bool   `mapstructure:"IS_PRODUCTION"`

	JWTSecret        string `mapstructure:"JWT_SECRET"`
	JWTExpiryMinutes int    `mapstructure:"JWT_EXPIRY_MINUTES"`
	JWTIssuer        string `mapstructure:"JWT_ISSUER"`

	RateAPIBaseURL          string `mapstructure:"RATE_API_BASE_URL"`
	RateFetchTimeoutSeconds int    `mapstructure:"RATE_FETCH_TIMEOUT_SECONDS"`
	RateCacheTTLMinutes     int    `mapstructure:"RATE_CACHE_TTL_MINUTES"`

	RateLimitRequests int `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   int `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
}

// JWTExpiry returns the access token lifetime as a duration.
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryMinutes) * time.Minute
}

// RateFetchTimeout returns the per-request timeout for the rate provider.
func (c *Config) RateFetchTimeout() time.Duration {
	return time.Duration(c.RateFetchTimeoutSeconds) * time.Second
}

// RateCacheTTL returns how long a fetched rate table stays fresh.
func (c *Config) RateCacheTTL() time.Duration {
	return time.Duration(c.RateCacheTTLMinutes) * time.Minute
}

// LoadConfig loads configuration from a .env file (if present) and the
// process environment. Environment variables take precedence.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		// Missing .env is the normal case outside local development.
		slog.Debug("No .env file loaded", "path", path, "reason", err.Error())
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("JWT_EXPIRY_MINUTES", 60)
	v.SetDefault("JWT_ISSUER", "expense-management-app")
	v.SetDefault("RATE_API_BASE_URL", "https://api.exchangerate-api.com/v4/latest")
	v.SetDefault("RATE_FETCH_TIMEOUT_SECONDS", 5)
	v.SetDefault("RATE_CACHE_TTL_MINUTES", 60)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	// AutomaticEnv alone does not surface env vars through Unmarshal, so
	// each key is bound explicitly.
	for _, key := range []string{
		"PGSQL_URL", "PORT", "IS_PRODUCTION",
		"JWT_SECRET", "JWT_EXPIRY_MINUTES", "JWT_ISSUER",
		"RATE_API_BASE_URL", "RATE_FETCH_TIMEOUT_SECONDS", "RATE_CACHE_TTL_MINUTES",
		"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW_SECONDS",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env var %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("PGSQL_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &cfg, nil
}
