// Package audit defines the audit event shape shared across modules.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event captures a security-relevant decision for the audit trail.
type Event struct {
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	ClientID  string    `json:"client_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	At        time.Time `json:"at,omitempty"`
}

// Emitter is the interface for audit event emission.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// LogEmitter writes audit events to a structured logger. It stands in for
// a durable audit sink in deployments that run without one.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(ctx context.Context, event Event) error {
	if e.logger == nil {
		return nil
	}
	e.logger.InfoContext(ctx, "audit_event",
		"action", event.Action,
		"subject", event.Subject,
		"client_id", event.ClientID,
		"request_id", event.RequestID,
		"reason", event.Reason,
		"decision", event.Decision,
	)
	return nil
}
