package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for connector-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (SECRET_KEY, PGPASSWORD, API_KEY) must only come from the environment.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// APIKey gates all /api routes when non-empty (X-API-Key header).
	APIKey string `yaml:"-" env:"API_KEY"`

	// Database configuration (PostgreSQL backing store for descriptors)
	Database DatabaseConfig `yaml:"database"`

	// Encryption configuration for connection parameters at rest
	Encryption EncryptionConfig `yaml:"encryption"`

	// Dispatch configuration for capability invocations
	Dispatch DispatchConfig `yaml:"dispatch"`

	// LogLevel controls zap's minimum level ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// DatabaseConfig holds PostgreSQL backing-store configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"connector"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"connector_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// EncryptionConfig controls encryption of connection parameters at rest.
// Disabling it after rows were written encrypted (or vice versa) is a
// one-way migration concern: existing rows are not re-encrypted.
type EncryptionConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENCRYPT_PARAMS" env-default:"true"`
	Secret  string `yaml:"-" env:"SECRET_KEY"` // Secret - not in YAML
}

// DispatchConfig bounds capability invocations.
type DispatchConfig struct {
	// TimeoutSeconds is the per-invocation deadline for test/metadata/schema
	// calls against external backends.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"DISPATCH_TIMEOUT_SECONDS" env-default:"10"`
}

// Timeout returns the dispatch deadline as a duration.
func (c *DispatchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConnectionString returns a PostgreSQL connection string for the backing store.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from config.yaml with environment variable
// overrides. If config.yaml does not exist, environment variables alone are
// used. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	err := cleanenv.ReadConfig("config.yaml", cfg)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Encryption.Enabled && c.Encryption.Secret == "" {
		return fmt.Errorf("SECRET_KEY must be set when parameter encryption is enabled")
	}
	if c.Dispatch.TimeoutSeconds <= 0 {
		return fmt.Errorf("dispatch timeout must be positive, got %d", c.Dispatch.TimeoutSeconds)
	}
	return nil
}
