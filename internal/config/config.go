package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Platform        string        `envconfig:"PLATFORM" default:"discord"` // discord|telegram
	BotToken        string        `envconfig:"BOT_TOKEN"`
	StoreDriver     string        `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite|memory
	DBPath          string        `envconfig:"DB_PATH" default:"./data/reminders.db"`
	Timezone        string        `envconfig:"TIMEZONE" default:"Asia/Jakarta"`
	CommandPrefixes []string      `envconfig:"COMMAND_PREFIXES" default:"rem!"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"` // keep-alive page; empty disables
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	DeliveryTimeout time.Duration `envconfig:"DELIVERY_TIMEOUT" default:"10s"`
}

var (
	ErrMissingToken  = errors.New("BOT_TOKEN is required")
	ErrPlatform      = errors.New("PLATFORM must be discord or telegram")
	ErrStoreDriver   = errors.New("STORE_DRIVER must be sqlite or memory")
	ErrSweepInterval = errors.New("SWEEP_INTERVAL must be between 1s and 1m")
)

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	cfg.Platform = strings.ToLower(strings.TrimSpace(cfg.Platform))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

// Validate checks what the bot needs to start serving. The CLI tools only
// need the store settings, so they skip it.
func (c Config) Validate() error {
	switch c.Platform {
	case "discord", "telegram":
	default:
		return fmt.Errorf("%w: %q", ErrPlatform, c.Platform)
	}
	if c.BotToken == "" {
		return ErrMissingToken
	}
	switch c.StoreDriver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrStoreDriver, c.StoreDriver)
	}
	if c.SweepInterval < time.Second || c.SweepInterval > time.Minute {
		return fmt.Errorf("%w: %s", ErrSweepInterval, c.SweepInterval)
	}
	if len(c.Prefixes()) == 0 {
		return errors.New("COMMAND_PREFIXES is empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := domain.ValidateTZ(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

// Prefixes returns the non-empty command prefixes.
func (c Config) Prefixes() []string {
	out := make([]string, 0, len(c.CommandPrefixes))
	for _, p := range c.CommandPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
