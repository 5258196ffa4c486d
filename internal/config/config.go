// Package config loads runtime settings from the environment.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Save backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds every setting the game reads at startup.
type Config struct {
	// DBPath is the SQLite file. Empty means the XDG default.
	DBPath string `env:"SMARTROOM_DB"`

	// SaveBackend selects where saves go: "sqlite" or "redis".
	SaveBackend string `env:"SMARTROOM_SAVE_BACKEND" envDefault:"sqlite"`

	RedisAddr string `env:"SMARTROOM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"SMARTROOM_REDIS_DB" envDefault:"0"`

	// LogLevel is a zerolog level name.
	LogLevel string `env:"SMARTROOM_LOG_LEVEL" envDefault:"info"`

	// LogFile receives logs while the TUI owns the terminal. Empty means the
	// XDG state default.
	LogFile string `env:"SMARTROOM_LOG_FILE"`

	HealthInterval time.Duration `env:"SMARTROOM_HEALTH_INTERVAL" envDefault:"1m"`
	TickInterval   time.Duration `env:"SMARTROOM_TICK_INTERVAL" envDefault:"2s"`

	// CrisisThreshold is the tension level that starts a crisis.
	CrisisThreshold float64 `env:"SMARTROOM_CRISIS_THRESHOLD" envDefault:"0.7"`

	// SaveRetention is how many saves Prune keeps after an autosave.
	SaveRetention int `env:"SMARTROOM_SAVE_RETENTION" envDefault:"20"`

	// Seed fixes the simulation RNG. Zero picks one from the clock.
	Seed uint64 `env:"SMARTROOM_SEED" envDefault:"0"`
}

// DefaultConfig returns the settings used when the environment is empty.
func DefaultConfig() Config {
	return Config{
		SaveBackend:     BackendSQLite,
		RedisAddr:       "localhost:6379",
		LogLevel:        "info",
		HealthInterval:  time.Minute,
		TickInterval:    2 * time.Second,
		CrisisThreshold: 0.7,
		SaveRetention:   20,
	}
}

// Load parses the environment on top of the defaults and validates the
// result.
func Load() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, eris.Wrap(err, "validate config")
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s", c.LogLevel)
	}
	switch c.SaveBackend {
	case BackendSQLite:
	case BackendRedis:
		if c.RedisAddr == "" {
			return eris.New("redis address cannot be empty when the redis backend is selected")
		}
	default:
		return eris.Errorf("invalid save backend: %s (must be 'sqlite' or 'redis')", c.SaveBackend)
	}
	if c.HealthInterval <= 0 {
		return eris.New("health interval must be positive")
	}
	if c.TickInterval <= 0 {
		return eris.New("tick interval must be positive")
	}
	if c.CrisisThreshold <= 0 || c.CrisisThreshold > 1 {
		return eris.New("crisis threshold must be in (0, 1]")
	}
	if c.SaveRetention < 1 {
		return eris.New("save retention must be at least 1")
	}
	return nil
}
