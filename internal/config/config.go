// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds all settings for a battlehexes process.
type Config struct {
	ResolverURL string        `validate:"required,url"`
	Port        int           `validate:"min=1,max=65535"`
	DBPath      string        `validate:"required"`
	ThinkDelay  time.Duration `validate:"gte=0s"`
	StepDelay   time.Duration `validate:"gte=0s"`
	Rows        int           `validate:"min=1"`
	Columns     int           `validate:"min=1"`
	Seed        int64
	LogFormat   string `validate:"oneof=text json"`
	LogLevel    string `validate:"oneof=debug info warn warning error"`
}

// Load reads a .env file if present, then the environment. Unset variables
// fall back to defaults; malformed numbers are an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ResolverURL: envOrDefault("BATTLEHEXES_RESOLVER_URL", "http://localhost:8000"),
		DBPath:      envOrDefault("BATTLEHEXES_DB_PATH", "data/battlehexes.db"),
		LogFormat:   strings.ToLower(envOrDefault("LOG_FORMAT", "text")),
		LogLevel:    strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
	}

	var err error
	if cfg.Port, err = envInt("BATTLEHEXES_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Rows, err = envInt("BATTLEHEXES_ROWS", 10); err != nil {
		return nil, err
	}
	if cfg.Columns, err = envInt("BATTLEHEXES_COLUMNS", 10); err != nil {
		return nil, err
	}
	think, err := envInt("BATTLEHEXES_THINK_DELAY_MS", 500)
	if err != nil {
		return nil, err
	}
	step, err := envInt("BATTLEHEXES_STEP_DELAY_MS", 300)
	if err != nil {
		return nil, err
	}
	cfg.ThinkDelay = time.Duration(think) * time.Millisecond
	cfg.StepDelay = time.Duration(step) * time.Millisecond

	seed, err := envInt("BATTLEHEXES_SEED", 0)
	if err != nil {
		return nil, err
	}
	cfg.Seed = int64(seed)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations. Call it again after applying
// overrides from flags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
