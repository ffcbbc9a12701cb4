// Package handler exposes the operator surface of the abuse core over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"formgate/internal/abuse/models"
	"formgate/internal/transport/httputil"
	dErrors "formgate/pkg/domain-errors"
	"formgate/pkg/requestcontext"
)

// maxAdminBodyBytes bounds admin request bodies.
const maxAdminBodyBytes = 64 * 1024

type Service interface {
	AddToAllowlist(ctx context.Context, req *models.AddAllowlistRequest) (*models.AllowlistEntry, error)
	RemoveFromAllowlist(ctx context.Context, req *models.RemoveAllowlistRequest) error
	ListAllowlist(ctx context.Context) ([]*models.AllowlistEntry, error)
	ResetBudget(ctx context.Context, req *models.ResetBudgetRequest) error
	InspectBudget(ctx context.Context, clientID string) (float64, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/abuse/allowlist", h.HandleAddAllowlist)
	r.Delete("/admin/abuse/allowlist", h.HandleRemoveAllowlist)
	r.Get("/admin/abuse/allowlist", h.HandleListAllowlist)
	r.Post("/admin/abuse/budget/reset", h.HandleResetBudget)
	r.Get("/admin/abuse/budget/{client_id}", h.HandleInspectBudget)
}

// HandleAddAllowlist implements POST /admin/abuse/allowlist.
// Input: { "identifier": "203.0.113.7", "reason": "...", "expires_at": "..." }
// Output: { "allowlisted": true, "identifier": "203.0.113.7", "expires_at": "..." }
func (h *Handler) HandleAddAllowlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodyBytes)

	var req models.AddAllowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode add allowlist request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	entry, err := h.service.AddToAllowlist(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to add to allowlist",
			"error", err,
			"identifier", req.Identifier,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.AllowlistEntryResponse{
		Allowlisted: true,
		Identifier:  entry.Identifier,
		ExpiresAt:   entry.ExpiresAt,
	})
}

// HandleRemoveAllowlist implements DELETE /admin/abuse/allowlist.
// Input: { "identifier": "203.0.113.7" }
// Output: 204 No Content
func (h *Handler) HandleRemoveAllowlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodyBytes)

	var req models.RemoveAllowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode remove allowlist request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	if err := h.service.RemoveFromAllowlist(ctx, &req); err != nil {
		h.logger.ErrorContext(ctx, "failed to remove from allowlist",
			"error", err,
			"identifier", req.Identifier,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAllowlist implements GET /admin/abuse/allowlist.
// Returns all active allowlist entries.
func (h *Handler) HandleListAllowlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.ListAllowlist(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list allowlist entries",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.AllowlistEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleResetBudget implements POST /admin/abuse/budget/reset.
// Input: { "client_id": "203.0.113.7" }
// Output: 204 No Content
func (h *Handler) HandleResetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodyBytes)

	var req models.ResetBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode reset budget request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	if err := h.service.ResetBudget(ctx, &req); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset budget",
			"error", err,
			"client_id", req.ClientID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleInspectBudget implements GET /admin/abuse/budget/{client_id}.
// Reports the client's current token balance without debiting it.
func (h *Handler) HandleInspectBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID := chi.URLParam(r, "client_id")
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "client_id is required"))
		return
	}

	remaining, err := h.service.InspectBudget(ctx, clientID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to inspect budget",
			"error", err,
			"client_id", clientID,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.BudgetResponse{
		ClientID:  clientID,
		Remaining: remaining,
	})
}
