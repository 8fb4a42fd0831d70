package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("default port = %q", cfg.Port)
	}
	if cfg.SeedBatchSize != 100 {
		t.Fatalf("default seed batch size = %d", cfg.SeedBatchSize)
	}
	if cfg.SeedTimeout != 30*time.Second {
		t.Fatalf("default seed timeout = %v", cfg.SeedTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("default cache TTL = %v", cfg.CacheTTL)
	}
	if cfg.ForceSeed {
		t.Fatalf("force seed should default to false")
	}
	if !strings.HasPrefix(cfg.SeedURL, "https://") {
		t.Fatalf("default seed URL = %q", cfg.SeedURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SEED_URL", "http://localhost:1234/feed.json")
	t.Setenv("SEED_BATCH_SIZE", "25")
	t.Setenv("SEED_TIMEOUT", "10s")
	t.Setenv("FORCE_SEED", "true")
	t.Setenv("CACHE_TTL", "1m")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.SeedURL != "http://localhost:1234/feed.json" {
		t.Fatalf("seed URL = %q", cfg.SeedURL)
	}
	if cfg.SeedBatchSize != 25 {
		t.Fatalf("seed batch size = %d", cfg.SeedBatchSize)
	}
	if cfg.SeedTimeout != 10*time.Second {
		t.Fatalf("seed timeout = %v", cfg.SeedTimeout)
	}
	if !cfg.ForceSeed {
		t.Fatalf("force seed = false, want true")
	}
	if cfg.CacheTTL != time.Minute {
		t.Fatalf("cache TTL = %v", cfg.CacheTTL)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("SEED_BATCH_SIZE", "not-a-number")
	t.Setenv("SEED_TIMEOUT", "soon")
	t.Setenv("FORCE_SEED", "maybe")

	cfg := Load()
	if cfg.SeedBatchSize != 100 || cfg.SeedTimeout != 30*time.Second || cfg.ForceSeed {
		t.Fatalf("malformed env should fall back to defaults: %+v", cfg)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Port:          "8080",
		SQLiteDBPath:  filepath.Join(t.TempDir(), "test.db"),
		SeedURL:       "https://example.com/feed.json",
		SeedTimeout:   30 * time.Second,
		SeedBatchSize: 100,
		CacheTTL:      5 * time.Minute,
		CacheSize:     100,
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"non numeric port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"empty seed url", func(c *Config) { c.SeedURL = "" }, "seed URL"},
		{"bad seed scheme", func(c *Config) { c.SeedURL = "ftp://example.com/feed" }, "seed URL scheme"},
		{"batch size too small", func(c *Config) { c.SeedBatchSize = 0 }, "seed batch size"},
		{"batch size too large", func(c *Config) { c.SeedBatchSize = 10000 }, "seed batch size"},
		{"seed timeout too short", func(c *Config) { c.SeedTimeout = time.Millisecond }, "seed timeout"},
		{"cache size too small", func(c *Config) { c.CacheSize = 0 }, "cache size"},
		{"cache ttl too short", func(c *Config) { c.CacheTTL = time.Millisecond }, "cache TTL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
