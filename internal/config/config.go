package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/ammar1510/chatflow/internal/database"
)

// Config is read from the environment, optionally seeded from a .env file
type Config struct {
	Env            string   `env:"ENV" envDefault:"development"`
	Port           string   `env:"PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	DBType         string   `env:"DB_TYPE" envDefault:"pebble"`
	DataDir        string   `env:"DATA_DIR" envDefault:"data"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	JWTSecret      string   `env:"JWT_SECRET"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	DirectoryURL   string   `env:"DIRECTORY_URL"`
	RealtimeURL    string   `env:"REALTIME_URL"`
}

// Load reads the given .env files (missing files are skipped) and then
// parses the environment.
func Load(files ...string) (*Config, []string, error) {
	var warnings []string
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s not loaded, using environment variables", f))
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, warnings, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}

	switch database.DatabaseType(c.DBType) {
	case database.Pebble, database.Memory:
	case database.PostgreSQL, database.SQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_TYPE=%s", c.DBType)
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	return nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ConnString is what database.NewDatabase expects for the configured backend
func (c *Config) ConnString() string {
	switch database.DatabaseType(c.DBType) {
	case database.Pebble:
		return filepath.Join(c.DataDir, "store")
	default:
		return c.DatabaseURL
	}
}
