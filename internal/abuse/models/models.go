// Package models defines the domain types shared across the abuse-protection
// core: submissions, detector signals, fused verdicts, and gate decisions.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "formgate/pkg/domain-errors"
)

// FallbackClientID is substituted when a caller passes an empty client
// identifier. Degrading to a shared bucket keeps rate limiting in force
// instead of silently bypassing it.
const FallbackClientID = "unidentified"

// Submission is an immutable snapshot of a single form post: the submitted
// fields plus optional timing metadata. Detectors never mutate it.
type Submission struct {
	// Fields maps field name to submitted value. Checkbox-style inputs
	// arrive as their string form ("true", "on").
	Fields map[string]string

	// RenderedAt is when the form was first shown to the end user,
	// typically carried in a hidden field. Zero when the caller has no
	// timing metadata.
	RenderedAt time.Time

	// SubmittedAt is when this request arrived. Zero when unknown.
	SubmittedAt time.Time
}

// Field returns the named field's value and whether it was submitted at all.
func (s Submission) Field(name string) (string, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// FieldTrimmed returns the named field's value with surrounding whitespace
// removed, and whether the field was submitted.
func (s Submission) FieldTrimmed(name string) (string, bool) {
	v, ok := s.Fields[name]
	return strings.TrimSpace(v), ok
}

// HasTiming reports whether both timing timestamps were supplied.
func (s Submission) HasTiming() bool {
	return !s.RenderedAt.IsZero() && !s.SubmittedAt.IsZero()
}

// Elapsed returns how long the form was open before submission. The second
// return is false when timing metadata is absent.
func (s Submission) Elapsed() (time.Duration, bool) {
	if !s.HasTiming() {
		return 0, false
	}
	return s.SubmittedAt.Sub(s.RenderedAt), true
}

// SignalResult is the output of a single detector. Detectors are independent
// and never see each other's results.
type SignalResult struct {
	// Triggered marks the signal as independently disqualifying.
	Triggered bool `json:"triggered"`

	// Score is this signal's contribution to the composite. Individual
	// signals are not clamped; only the fused total is.
	Score int `json:"score"`

	// Reason is a short operator-facing explanation, empty when the
	// signal has nothing informative to say.
	Reason string `json:"reason,omitempty"`
}

// RiskVerdict is the fused outcome over all detector signals.
type RiskVerdict struct {
	IsSpam bool `json:"is_spam"`

	// Score is the composite risk estimate, clamped to [0,100] exactly
	// once at fusion time.
	Score int `json:"score"`

	// Reasons preserves detector evaluation order for deterministic logs.
	Reasons []string `json:"reasons"`
}

// GateDecision is what the abuse gate hands back to the HTTP layer.
// RateLimited implies !Admitted and a nil Verdict: rate limiting is checked
// before any scoring work.
type GateDecision struct {
	Admitted    bool         `json:"admitted"`
	RateLimited bool         `json:"rate_limited"`
	Remaining   float64      `json:"remaining"`
	Verdict     *RiskVerdict `json:"verdict,omitempty"`
}

// RateLimitResult is the outcome of a single budget check.
type RateLimitResult struct {
	Allowed bool `json:"allowed"`

	// Bypassed is set when an allowlist entry exempted the client. The
	// underlying bucket is still debited to keep check timing uniform.
	Bypassed bool `json:"bypassed"`

	// Remaining is the fractional token balance after this check.
	Remaining float64 `json:"remaining"`
}

// AllowlistEntry exempts a client identifier from rate limiting, optionally
// until an expiry time.
type AllowlistEntry struct {
	ID         string     `json:"id"`
	Identifier string     `json:"identifier"`
	Reason     string     `json:"reason"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewAllowlistEntry creates an AllowlistEntry with domain invariant validation.
func NewAllowlistEntry(identifier, reason string, expiresAt *time.Time) (*AllowlistEntry, error) {
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identifier cannot be empty")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reason cannot be empty")
	}

	return &AllowlistEntry{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Reason:     reason,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}, nil
}

// IsExpired reports whether the entry has lapsed at the given time.
func (e *AllowlistEntry) IsExpired(now time.Time) bool {
	if e.ExpiresAt == nil {
		return false
	}
	return now.After(*e.ExpiresAt)
}
