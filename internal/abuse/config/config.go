// Package config holds the deployment-tunable abuse policy: rate limit
// budgets, trap field names, content heuristics vocabulary. Detector scores
// and thresholds are part of the scoring model and live with the detectors.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "formgate/pkg/platform/strings"
)

// Config is the full abuse policy for one deployment.
type Config struct {
	RateLimit RateLimit `yaml:"rate_limit"`
	Honeypot  Honeypot  `yaml:"honeypot"`
	Content   Content   `yaml:"content"`
}

// RateLimit defines the per-client token budget.
type RateLimit struct {
	// Capacity is the maximum token count; a full budget admits this many
	// submissions back to back.
	Capacity float64 `yaml:"capacity"`

	// RefillInterval is the window over which Capacity tokens fully
	// replenish. Refill is continuous, not stepped.
	RefillInterval time.Duration `yaml:"refill_interval"`

	// SweepAfterIntervals bounds registry memory: entries idle for this
	// many refill intervals are dropped by the sweeper. A swept client
	// restarts at full capacity, an accepted imprecision.
	SweepAfterIntervals int `yaml:"sweep_after_intervals"`
}

// Honeypot lists trap fields legitimate clients never populate.
type Honeypot struct {
	Fields []string `yaml:"fields"`
}

// Content configures the content heuristic detector.
type Content struct {
	// TextFields are the free-text fields scanned by the sub-checks.
	TextFields []string `yaml:"text_fields"`

	// EmailField names the submission's email field, "" when the form
	// has none.
	EmailField string `yaml:"email_field"`

	// SpamPatterns are case-insensitive substrings indicating promotional
	// or scam vocabulary.
	SpamPatterns []string `yaml:"spam_patterns"`

	// DisposableDomains are substrings matched against the email domain
	// to flag throwaway providers.
	DisposableDomains []string `yaml:"disposable_domains"`
}

// DefaultConfig returns the stock policy: 5 submissions per hour per client
// and the trap/vocabulary lists observed to work on public contact forms.
func DefaultConfig() *Config {
	return &Config{
		RateLimit: RateLimit{
			Capacity:            5,
			RefillInterval:      time.Hour,
			SweepAfterIntervals: 3,
		},
		Honeypot: Honeypot{
			Fields: []string{"website", "phone_number", "company", "fax"},
		},
		Content: Content{
			TextFields: []string{"comment", "message", "description", "notes"},
			EmailField: "email",
			SpamPatterns: []string{
				"free money",
				"make money fast",
				"work from home",
				"limited time offer",
				"act now",
				"click here",
				"100% free",
				"no credit check",
				"congratulations you",
				"double your",
				"guaranteed winner",
				"viagra",
				"casino bonus",
			},
			DisposableDomains: []string{
				"mailinator",
				"guerrillamail",
				"10minutemail",
				"tempmail",
				"trashmail",
				"throwaway",
				"yopmail",
				"sharklasers",
			},
		},
	}
}

// LoadFile reads a YAML policy file and overlays it on the defaults, so a
// deployment only specifies the knobs it changes.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return cfg, nil
}

// normalize cleans up operator-supplied lists: stray whitespace and
// duplicated entries would otherwise double-count content sub-checks.
func (c *Config) normalize() {
	c.Honeypot.Fields = platformstrings.DedupeAndTrim(c.Honeypot.Fields)
	c.Content.TextFields = platformstrings.DedupeAndTrim(c.Content.TextFields)
	c.Content.SpamPatterns = platformstrings.DedupeAndTrim(c.Content.SpamPatterns)
	c.Content.DisposableDomains = platformstrings.DedupeAndTrim(c.Content.DisposableDomains)
}

// Validate rejects configurations the limiter and detectors cannot operate
// under.
func (c *Config) Validate() error {
	if c.RateLimit.Capacity <= 0 {
		return fmt.Errorf("rate_limit.capacity must be positive, got %v", c.RateLimit.Capacity)
	}
	if c.RateLimit.RefillInterval <= 0 {
		return fmt.Errorf("rate_limit.refill_interval must be positive, got %v", c.RateLimit.RefillInterval)
	}
	if c.RateLimit.SweepAfterIntervals <= 0 {
		return fmt.Errorf("rate_limit.sweep_after_intervals must be positive, got %d", c.RateLimit.SweepAfterIntervals)
	}
	return nil
}

// SweepIdleAfter returns how long a budget entry may sit untouched before
// the sweeper reclaims it.
func (c *Config) SweepIdleAfter() time.Duration {
	return time.Duration(c.RateLimit.SweepAfterIntervals) * c.RateLimit.RefillInterval
}
