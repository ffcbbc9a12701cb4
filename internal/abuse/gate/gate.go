// Package gate orchestrates the abuse-protection pipeline for a single
// submission: rate limiting first, then the detector battery, then risk
// fusion. The gate owns the ordering guarantee that rate-limited submissions
// are never scored.
package gate

//go:generate mockgen -source=gate.go -destination=mocks/mocks.go -package=mocks RateLimiter,Detector

import (
	"context"
	"errors"
	"log/slog"

	"formgate/internal/abuse/metrics"
	"formgate/internal/abuse/models"
	"formgate/internal/abuse/observability"
	"formgate/internal/abuse/policy"
	"formgate/internal/abuse/tracer"
	"formgate/pkg/requestcontext"
)

// RateLimiter checks a client's submission budget.
type RateLimiter interface {
	Check(ctx context.Context, clientID string) (*models.RateLimitResult, error)
}

// Detector evaluates one independent spam signal over a submission.
// Implementations must be pure and safe for concurrent use.
type Detector interface {
	Name() string
	Detect(sub models.Submission) models.SignalResult
}

// Gate is the single entry point callers use to vet a submission.
type Gate struct {
	limiter        RateLimiter
	detectors      []Detector
	logger         *slog.Logger
	auditPublisher observability.AuditPublisher
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
}

// Option configures a Gate instance.
type Option func(*Gate)

// WithLogger sets the structured logger for decision and audit logging.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithAuditPublisher sets the audit event publisher for security logging.
func WithAuditPublisher(publisher observability.AuditPublisher) Option {
	return func(g *Gate) {
		g.auditPublisher = publisher
	}
}

// WithMetrics sets the metrics recorder for observability.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithTracer sets the tracer used to span gate decisions.
func WithTracer(t tracer.Tracer) Option {
	return func(g *Gate) {
		g.tracer = t
	}
}

// New creates a gate over the given rate limiter and detector battery.
// Detector order is preserved: signals and reasons are always reported in
// registration order.
func New(limiter RateLimiter, detectors []Detector, opts ...Option) (*Gate, error) {
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if len(detectors) == 0 {
		return nil, errors.New("at least one detector is required")
	}

	g := &Gate{
		limiter:   limiter,
		detectors: detectors,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.tracer == nil {
		g.tracer = tracer.NewNoop()
	}

	return g, nil
}

// Admit runs the full pipeline for one submission. Rate limiting is checked
// first; a limited client short-circuits with no detector work and a nil
// verdict. Otherwise every detector runs, the signals are fused, and the
// decision follows the fused verdict.
func (g *Gate) Admit(ctx context.Context, clientID string, sub models.Submission) (models.GateDecision, error) {
	start := requestcontext.Now(ctx)

	ctx, span := g.tracer.Start(ctx, tracer.SpanGateAdmit,
		tracer.String(tracer.AttrClientID, clientID),
	)

	decision, err := g.admit(ctx, clientID, sub, span)
	span.End(err)

	if err == nil && g.metrics != nil {
		g.metrics.ObserveAdmitDuration(requestcontext.Now(ctx).Sub(start))
	}
	return decision, err
}

func (g *Gate) admit(ctx context.Context, clientID string, sub models.Submission, span tracer.Span) (models.GateDecision, error) {
	limitCtx, limitSpan := g.tracer.Start(ctx, tracer.SpanRateLimitCheck)
	limit, err := g.limiter.Check(limitCtx, clientID)
	limitSpan.End(err)
	if err != nil {
		return models.GateDecision{}, err
	}

	span.SetAttributes(
		tracer.Bool(tracer.AttrRateLimited, !limit.Allowed),
		tracer.Bool(tracer.AttrAllowlisted, limit.Bypassed),
		tracer.Float64(tracer.AttrRemaining, limit.Remaining),
	)

	if !limit.Allowed {
		if g.metrics != nil {
			g.metrics.RecordDecision("rate_limited")
		}
		if g.logger != nil {
			g.logger.InfoContext(ctx, "submission rate limited",
				"client_id", clientID,
				"remaining", limit.Remaining,
			)
		}
		return models.GateDecision{
			RateLimited: true,
			Remaining:   limit.Remaining,
		}, nil
	}

	detectCtx, detectSpan := g.tracer.Start(ctx, tracer.SpanDetectorRun)
	detectStart := requestcontext.Now(detectCtx)

	signals := make([]models.SignalResult, 0, len(g.detectors))
	for _, d := range g.detectors {
		signal := d.Detect(sub)
		signals = append(signals, signal)

		if signal.Triggered {
			detectSpan.AddEvent(tracer.EventSignalTriggered,
				tracer.String("detector", d.Name()),
				tracer.Int64("score", int64(signal.Score)),
			)
			if g.metrics != nil {
				g.metrics.RecordSignalTriggered(d.Name())
			}
		}
	}

	detectSpan.SetAttributes(tracer.Duration("elapsed", requestcontext.Now(detectCtx).Sub(detectStart)))
	detectSpan.End(nil)

	verdict := policy.Evaluate(signals)

	span.SetAttributes(
		tracer.Int64(tracer.AttrRiskScore, int64(verdict.Score)),
		tracer.Bool(tracer.AttrIsSpam, verdict.IsSpam),
	)

	if g.metrics != nil {
		g.metrics.ObserveRiskScore(verdict.Score)
	}

	if verdict.IsSpam {
		if g.metrics != nil {
			g.metrics.RecordDecision("rejected")
		}
		observability.LogAudit(ctx, g.logger, g.auditPublisher, "submission_rejected",
			"client_id", clientID,
			"score", verdict.Score,
			"reason", firstReason(verdict),
		)
		span.AddEvent(tracer.EventAuditEmitted,
			tracer.String("action", "submission_rejected"),
		)
		return models.GateDecision{
			Remaining: limit.Remaining,
			Verdict:   &verdict,
		}, nil
	}

	if g.metrics != nil {
		g.metrics.RecordDecision("admitted")
	}

	// The suspicion band is logged but admitted, giving operators a signal
	// to tune thresholds against without rejecting real users.
	if policy.Suspicious(verdict) && g.logger != nil {
		g.logger.WarnContext(ctx, "suspicious submission admitted",
			"client_id", clientID,
			"score", verdict.Score,
			"reasons", verdict.Reasons,
		)
	}

	return models.GateDecision{
		Admitted:  true,
		Remaining: limit.Remaining,
		Verdict:   &verdict,
	}, nil
}

func firstReason(v models.RiskVerdict) string {
	if len(v.Reasons) == 0 {
		return ""
	}
	return v.Reasons[0]
}
