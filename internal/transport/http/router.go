// Package httptransport assembles the HTTP surface: the protected demo form
// endpoint, the operator admin API, and operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	abusehandler "formgate/internal/abuse/handler"
	abuseMW "formgate/internal/abuse/middleware"
	"formgate/internal/platform/config"
	"formgate/internal/platform/middleware"
)

// Deps carries everything the router needs wired in from main.
type Deps struct {
	Gate   abuseMW.Admitter
	Admin  abusehandler.Service
	Server config.Server
	Logger *slog.Logger
}

// NewRouter wires all endpoints with the platform middleware stack.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Throttle(deps.Server.ThrottlePerSec, deps.Server.ThrottleBurst, deps.Logger))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The protected form surface. Anything mounted in this group runs
	// through the abuse gate before reaching its handler.
	protect := abuseMW.New(deps.Gate, deps.Logger)
	r.Group(func(r chi.Router) {
		r.Use(protect.Protect)
		r.Post("/forms/contact", handleContactForm(deps.Logger))
	})

	// Operator surface, disabled unless an admin token is configured.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(deps.Server.AdminToken, deps.Logger))
		abusehandler.New(deps.Admin, deps.Logger).RegisterAdmin(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
