// Package observability provides audit logging helpers for the abuse module.
package observability

import (
	"context"
	"log/slog"

	"formgate/pkg/platform/attrs"
	"formgate/pkg/platform/audit"
	"formgate/pkg/requestcontext"
)

// AuditPublisher emits audit events for security-relevant decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit is a shared helper for logging audit events across abuse services.
// It logs to both the structured logger and the audit publisher if available.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event string, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)

	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", event, "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, event, args...)
	}

	if publisher == nil {
		return
	}

	// Subject falls back through the common identifier fields.
	subject := attrs.ExtractString(attrList, "client_id")
	if subject == "" {
		subject = attrs.ExtractString(attrList, "identifier")
	}
	if subject == "" {
		subject = attrs.ExtractString(attrList, "ip")
	}

	reason := attrs.ExtractString(attrList, "reason")

	decision := attrs.ExtractString(attrList, "decision")
	if decision == "" {
		decision = "denied"
	}

	if err := publisher.Emit(ctx, audit.Event{
		Action:    event,
		Subject:   subject,
		ClientID:  attrs.ExtractString(attrList, "client_id"),
		RequestID: requestID,
		Reason:    reason,
		Decision:  decision,
	}); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event, "error", err)
	}
}
