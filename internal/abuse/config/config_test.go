package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5.0, cfg.RateLimit.Capacity)
	assert.Equal(t, time.Hour, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 3*time.Hour, cfg.SweepIdleAfter())
	assert.Contains(t, cfg.Honeypot.Fields, "website")
	assert.Contains(t, cfg.Content.TextFields, "comment")
	assert.Equal(t, "email", cfg.Content.EmailField)
	assert.NotEmpty(t, cfg.Content.SpamPatterns)
	assert.NotEmpty(t, cfg.Content.DisposableDomains)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Run("overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		data := `
rate_limit:
  capacity: 10
  refill_interval: 30m
honeypot:
  fields: [website, fax_number]
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, 10.0, cfg.RateLimit.Capacity)
		assert.Equal(t, 30*time.Minute, cfg.RateLimit.RefillInterval)
		assert.Equal(t, []string{"website", "fax_number"}, cfg.Honeypot.Fields)
		// Untouched sections keep their defaults
		assert.Equal(t, "email", cfg.Content.EmailField)
		assert.Equal(t, 3, cfg.RateLimit.SweepAfterIntervals)
	})

	t.Run("lists are trimmed and deduped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		data := `
honeypot:
  fields: ["  website ", "fax", "website", ""]
content:
  spam_patterns: [" act now", "act now"]
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, []string{"website", "fax"}, cfg.Honeypot.Fields)
		assert.Equal(t, []string{"act now"}, cfg.Content.SpamPatterns)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rate_limit:\n  capacity: -1\n"), 0o600))

		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "capacity")
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\t not yaml"), 0o600))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero capacity", func(c *Config) { c.RateLimit.Capacity = 0 }, "capacity"},
		{"zero refill", func(c *Config) { c.RateLimit.RefillInterval = 0 }, "refill_interval"},
		{"zero sweep intervals", func(c *Config) { c.RateLimit.SweepAfterIntervals = 0 }, "sweep_after_intervals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
