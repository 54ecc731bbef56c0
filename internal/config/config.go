// internal/config/config.go
//
// Service settings loaded from the environment.
// A .env file in the working directory is applied first (existing variables
// win), then the environment is parsed into Config.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service.
// HistoryDSN "memory" selects the plain in-process store instead of SQLite.
type Config struct {
	Port            string        `env:"PORT"             envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"       envDefault:"json"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	HistoryDSN      string        `env:"HISTORY_DSN"      envDefault:"file:simonsays-history?mode=memory&cache=shared"`
	HistoryLimit    int           `env:"HISTORY_LIMIT"    envDefault:"20"`
	Seed            uint64        `env:"SEED"             envDefault:"0"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads Config from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("config: PORT must not be empty")
	case c.HistoryLimit < 1 || c.HistoryLimit > 100:
		return fmt.Errorf("config: HISTORY_LIMIT must be between 1 and 100, got %d", c.HistoryLimit)
	case c.RequestTimeout <= 0:
		return errors.New("config: REQUEST_TIMEOUT must be positive")
	case c.ShutdownTimeout <= 0:
		return errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	case c.LogFormat != "json" && c.LogFormat != "console":
		return fmt.Errorf("config: LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }
