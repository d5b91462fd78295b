package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Benefits"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"benefits"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	// Storage selects where balances and transactions live: postgres or memory.
	Storage struct {
		Driver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
		// SeedFile is a JSON catalog loaded into the memory driver at startup.
		SeedFile string `envconfig:"STORAGE_SEED_FILE"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	}

	// Console is the identity the back-office console acts as.
	Console struct {
		Actor string `envconfig:"CONSOLE_ACTOR" default:"backoffice"`
	}
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	return nil
}

// RequireAuth reports whether the settings needed to serve the API are set.
func (c *Config) RequireAuth() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
