// Package ratelimit provides per-client submission budgeting.
//
// This is the first stage of the abuse gate: every submission debits one
// token from the client's continuously-refilling budget before any content
// inspection happens. It checks allowlist entries alongside the budget,
// allowing operators to exempt trusted integrations from limiting.
//
// Usage:
//
//	svc, _ := ratelimit.New(budgets, allowlist)
//	result, _ := svc.Check(ctx, clientID)
//	if !result.Allowed {
//	    // Return 429 Too Many Requests
//	}
package ratelimit

import (
	"context"
	"errors"
	"log/slog"

	"formgate/internal/abuse/metrics"
	"formgate/internal/abuse/models"
	"formgate/internal/abuse/observability"
	dErrors "formgate/pkg/domain-errors"
)

// BudgetStore debits client token budgets.
type BudgetStore interface {
	TryConsume(ctx context.Context, clientID string) (allowed bool, remaining float64, err error)
}

// AllowlistStore checks if a client should bypass rate limiting.
type AllowlistStore interface {
	IsAllowlisted(ctx context.Context, identifier string) (bool, error)
}

// Service enforces per-client submission budgets.
// Thread-safe for concurrent use by the gate and HTTP middleware.
type Service struct {
	budgets        BudgetStore
	allowlist      AllowlistStore
	auditPublisher observability.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger for audit and debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets the audit event publisher for security logging.
func WithAuditPublisher(publisher observability.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithMetrics sets the metrics recorder for observability.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a rate limiting service with the given stores and options.
// Returns an error if required stores are nil.
func New(budgets BudgetStore, allowlist AllowlistStore, opts ...Option) (*Service, error) {
	if budgets == nil {
		return nil, errors.New("budget store is required")
	}
	if allowlist == nil {
		return nil, errors.New("allowlist store is required")
	}

	svc := &Service{
		budgets:   budgets,
		allowlist: allowlist,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Check debits one token from the client's budget and reports whether the
// submission may proceed. An empty clientID degrades to a shared fallback
// bucket rather than bypassing limiting.
func (s *Service) Check(ctx context.Context, clientID string) (*models.RateLimitResult, error) {
	if clientID == "" {
		clientID = models.FallbackClientID
	}

	allowlisted, err := s.allowlist.IsAllowlisted(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check allowlist")
	}

	// SECURITY: Always perform the budget check regardless of allowlist
	// status. This keeps check timing uniform so an attacker cannot
	// enumerate allowlisted identifiers by measuring response latency.
	allowed, remaining, err := s.budgets.TryConsume(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check submission budget")
	}

	if allowlisted {
		if s.metrics != nil {
			s.metrics.RecordAllowlistBypass()
		}
		observability.LogAudit(ctx, s.logger, s.auditPublisher, "allowlist_bypass",
			"client_id", clientID,
			"decision", "allowed",
		)
		return &models.RateLimitResult{
			Allowed:   true,
			Bypassed:  true,
			Remaining: remaining,
		}, nil
	}

	if !allowed {
		observability.LogAudit(ctx, s.logger, s.auditPublisher, "submission_budget_exceeded",
			"client_id", clientID,
			"remaining", remaining,
		)
	}

	return &models.RateLimitResult{
		Allowed:   allowed,
		Remaining: remaining,
	}, nil
}
