package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port            int    `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL may be empty, in which case the service runs with the in-memory
// job store and loses job history on restart.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	// JWTSecret signs access tokens; it must be long enough to resist
	// brute forcing of the HMAC key.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// APIKeyHash is the bcrypt hash of the service API key, generated
	// with cmd/keygen. Clients exchange the plain key for a JWT.
	APIKeyHash string `mapstructure:"api_key_hash" validate:"required"`

	// TokenLifetimeMinutes is the access token lifetime in minutes.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// SchedulerConfig contains the settings of the bounded-concurrency scheduler.
type SchedulerConfig struct {
	// MaxConcurrency bounds how many jobs may run at the same time.
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"required,gte=1"`

	// QueueSize caps how many jobs may wait for admission.
	// Zero means the queue is unbounded.
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`

	// ProbeTimeoutSeconds bounds how long a single http_probe job may take.
	ProbeTimeoutSeconds int `mapstructure:"probe_timeout_seconds" validate:"gt=0"`
}
