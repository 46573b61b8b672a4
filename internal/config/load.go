package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load.
// SCHEDQ_SERVER_PORT maps to the "server.port" key, and so on.
const envPrefix = "SCHEDQ"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one. Required secrets
	// (jwt_secret, api_key_hash) deliberately have none.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 15)
	v.SetDefault("database.url", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("scheduler.max_concurrency", 4)
	v.SetDefault("scheduler.queue_size", 0)
	v.SetDefault("scheduler.probe_timeout_seconds", 30)

	// Optional config file: ./config.yaml, overridden by the environment.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; the environment may carry everything.
	}

	// SCHEDQ_SERVER_PORT etc. override file values.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only reports env-backed keys it has seen; bind them explicitly
	// so AutomaticEnv works for keys absent from both defaults and file.
	for _, key := range []string{
		"server.port", "server.log_level", "server.shutdown_timeout",
		"database.url",
		"auth.jwt_secret", "auth.api_key_hash", "auth.token_lifetime_minutes",
		"scheduler.max_concurrency", "scheduler.queue_size", "scheduler.probe_timeout_seconds",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
