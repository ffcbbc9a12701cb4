// Package admin manages the operator surface of the abuse core: allowlist
// entries and manual budget resets.
package admin

//go:generate mockgen -source=admin.go -destination=mocks/mocks.go -package=mocks AllowlistStore,BudgetStore,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"formgate/internal/abuse/models"
	"formgate/internal/abuse/observability"
	"formgate/internal/sentinel"
	dErrors "formgate/pkg/domain-errors"
	"formgate/pkg/platform/audit"
)

// AllowlistStore defines the persistence interface for the rate limit allowlist.
type AllowlistStore interface {
	Add(ctx context.Context, entry *models.AllowlistEntry) error
	Remove(ctx context.Context, identifier string) error
	List(ctx context.Context) ([]*models.AllowlistEntry, error)
}

// BudgetStore defines the persistence interface for budget operations.
type BudgetStore interface {
	Reset(ctx context.Context, clientID string) error
	Remaining(ctx context.Context, clientID string) (float64, error)
}

// AuditPublisher defines the interface for publishing audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	allowlist      AllowlistStore
	budgets        BudgetStore
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(
	allowlist AllowlistStore,
	budgets BudgetStore,
	opts ...Option,
) (*Service, error) {
	if allowlist == nil {
		return nil, fmt.Errorf("allowlist store is required")
	}
	if budgets == nil {
		return nil, fmt.Errorf("budget store is required")
	}

	svc := &Service{
		allowlist: allowlist,
		budgets:   budgets,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

func (s *Service) AddToAllowlist(ctx context.Context, req *models.AddAllowlistRequest) (*models.AllowlistEntry, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid add allowlist request: %w", err)
	}

	entry, err := models.NewAllowlistEntry(req.Identifier, req.Reason, req.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create allowlist entry: %w", err)
	}

	if err := s.allowlist.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add to allowlist: %w", err)
	}

	observability.LogAudit(ctx, s.logger, s.auditPublisher, "allowlist_entry_added",
		"identifier", entry.Identifier,
		"expires_at", entry.ExpiresAt,
		"reason", entry.Reason,
		"decision", "allowed",
	)
	return entry, nil
}

func (s *Service) RemoveFromAllowlist(ctx context.Context, req *models.RemoveAllowlistRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid remove allowlist request: %w", err)
	}

	if err := s.allowlist.Remove(ctx, req.Identifier); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "allowlist entry not found")
		}
		return fmt.Errorf("failed to remove from allowlist: %w", err)
	}

	observability.LogAudit(ctx, s.logger, s.auditPublisher, "allowlist_entry_removed",
		"identifier", req.Identifier,
		"decision", "allowed",
	)
	return nil
}

func (s *Service) ListAllowlist(ctx context.Context) ([]*models.AllowlistEntry, error) {
	entries, err := s.allowlist.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowlist entries: %w", err)
	}
	return entries, nil
}

// ResetBudget restores a client's full submission budget, typically after a
// false positive investigation.
func (s *Service) ResetBudget(ctx context.Context, req *models.ResetBudgetRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid reset budget request: %w", err)
	}

	if err := s.budgets.Reset(ctx, req.ClientID); err != nil {
		return fmt.Errorf("failed to reset budget for %s: %w", req.ClientID, err)
	}

	observability.LogAudit(ctx, s.logger, s.auditPublisher, "submission_budget_reset",
		"client_id", req.ClientID,
		"decision", "allowed",
	)
	return nil
}

// InspectBudget reports a client's current token balance without debiting it.
func (s *Service) InspectBudget(ctx context.Context, clientID string) (float64, error) {
	remaining, err := s.budgets.Remaining(ctx, clientID)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect budget for %s: %w", clientID, err)
	}
	return remaining, nil
}
