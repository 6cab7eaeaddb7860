package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Platform != "discord" || cfg.StoreDriver != "sqlite" || cfg.Timezone != "Asia/Jakarta" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SweepInterval != time.Minute || cfg.DeliveryTimeout != 10*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if got := cfg.Prefixes(); len(got) != 1 || got[0] != "rem!" {
		t.Fatalf("unexpected prefixes: %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "secret")
	t.Setenv("PLATFORM", " Telegram ")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("COMMAND_PREFIXES", "rem!,!r, ")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SWEEP_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Platform != "telegram" || cfg.StoreDriver != "memory" {
		t.Fatalf("not normalized: %+v", cfg)
	}
	if got := cfg.Prefixes(); len(got) != 2 || got[1] != "!r" {
		t.Fatalf("unexpected prefixes: %q", got)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("location: %v, %v", loc, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Platform:        "discord",
		BotToken:        "secret",
		StoreDriver:     "sqlite",
		Timezone:        "Asia/Jakarta",
		CommandPrefixes: []string{"rem!"},
		SweepInterval:   time.Minute,
	}
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no token", func(c *Config) { c.BotToken = "" }, ErrMissingToken},
		{"platform", func(c *Config) { c.Platform = "slack" }, ErrPlatform},
		{"driver", func(c *Config) { c.StoreDriver = "postgres" }, ErrStoreDriver},
		{"interval too long", func(c *Config) { c.SweepInterval = 2 * time.Minute }, ErrSweepInterval},
		{"interval too short", func(c *Config) { c.SweepInterval = 500 * time.Millisecond }, ErrSweepInterval},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	bad := base
	bad.Timezone = "Mars/Olympus"
	if err := bad.Validate(); err == nil {
		t.Fatal("unknown timezone accepted")
	}
	bad = base
	bad.CommandPrefixes = []string{" "}
	if err := bad.Validate(); err == nil {
		t.Fatal("blank prefixes accepted")
	}
}
