package httptransport

import (
	"log/slog"
	"net/http"

	abuseMW "formgate/internal/abuse/middleware"
	"formgate/internal/transport/httputil"
	"formgate/pkg/requestcontext"
)

// handleContactForm is the demo protected endpoint. By the time it runs the
// submission has already cleared the abuse gate; the decision is on the
// context for logging and response enrichment.
func handleContactForm(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		response := map[string]any{
			"status": "accepted",
		}

		if decision, ok := abuseMW.DecisionFromContext(ctx); ok && decision.Verdict != nil {
			logger.InfoContext(ctx, "contact form accepted",
				"request_id", requestcontext.RequestID(ctx),
				"risk_score", decision.Verdict.Score,
				"budget_remaining", decision.Remaining,
			)
			response["risk_score"] = decision.Verdict.Score
		}

		httputil.WriteJSON(w, http.StatusAccepted, response)
	}
}
