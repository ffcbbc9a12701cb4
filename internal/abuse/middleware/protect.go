// Package middleware adapts the abuse gate to HTTP form endpoints.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	platformMW "formgate/internal/platform/middleware"
	"formgate/internal/platform/privacy"

	"formgate/internal/abuse/models"
	"formgate/internal/transport/httputil"
	"formgate/pkg/requestcontext"
)

// TimingField is the hidden input carrying the form render timestamp,
// RFC 3339 encoded. Unparsable or missing values degrade to "no timing
// metadata" rather than an error.
const TimingField = "_rendered_at"

// maxFormMemory bounds multipart parsing; plain form posts are unaffected.
const maxFormMemory = 1 << 20

// Admitter decides whether one submission passes the abuse gate.
type Admitter interface {
	Admit(ctx context.Context, clientID string, sub models.Submission) (models.GateDecision, error)
}

type Middleware struct {
	gate   Admitter
	logger *slog.Logger
}

func New(gate Admitter, logger *slog.Logger) *Middleware {
	return &Middleware{
		gate:   gate,
		logger: logger,
	}
}

// Protect parses the posted form, runs it through the gate, and maps the
// decision onto the response: 429 when rate limited, 400 when rejected as
// spam, pass-through otherwise. Gate errors fail open so a degraded abuse
// core never takes the form endpoint down with it.
func (m *Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientID := platformMW.GetClientIP(ctx)

		sub, err := parseSubmission(r)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": "malformed_form",
			})
			return
		}

		decision, err := m.gate.Admit(ctx, clientID, sub)
		if err != nil {
			m.logger.Error("abuse gate check failed",
				"error", err,
				"ip_prefix", privacy.AnonymizeIP(clientID),
			)
			next.ServeHTTP(w, r)
			return
		}

		if decision.RateLimited {
			w.Header().Set("Retry-After", "60")
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limited",
				"error_description": "submission budget exceeded, retry later",
			})
			return
		}

		if !decision.Admitted {
			httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "submission_rejected",
				"error_description": "submission was classified as spam",
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(withDecision(ctx, decision)))
	})
}

// parseSubmission flattens the posted form into a Submission snapshot.
// Repeated fields keep their first value; the timing field is consumed
// rather than exposed to detectors.
func parseSubmission(r *http.Request) (models.Submission, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && err != http.ErrNotMultipart {
		return models.Submission{}, err
	}

	fields := make(map[string]string, len(r.PostForm))
	for name, values := range r.PostForm {
		if name == TimingField || len(values) == 0 {
			continue
		}
		fields[name] = values[0]
	}

	sub := models.Submission{Fields: fields}

	if raw := r.PostFormValue(TimingField); raw != "" {
		if renderedAt, err := time.Parse(time.RFC3339, raw); err == nil {
			sub.RenderedAt = renderedAt
			sub.SubmittedAt = requestcontext.Now(r.Context())
		}
	}

	return sub, nil
}

type decisionKey struct{}

func withDecision(ctx context.Context, d models.GateDecision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

// DecisionFromContext returns the gate decision attached by Protect, if any.
// Handlers use it to surface the risk score without re-running detectors.
func DecisionFromContext(ctx context.Context) (models.GateDecision, bool) {
	d, ok := ctx.Value(decisionKey{}).(models.GateDecision)
	return d, ok
}
