package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/internal/abuse/models"
	dErrors "formgate/pkg/domain-errors"
)

type stubService struct {
	addErr    error
	removeErr error
	resetErr  error
	entries   []*models.AllowlistEntry
	remaining float64

	lastAdd   *models.AddAllowlistRequest
	lastReset *models.ResetBudgetRequest
}

func (s *stubService) AddToAllowlist(_ context.Context, req *models.AddAllowlistRequest) (*models.AllowlistEntry, error) {
	s.lastAdd = req
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &models.AllowlistEntry{
		ID:         "e-1",
		Identifier: req.Identifier,
		Reason:     req.Reason,
		ExpiresAt:  req.ExpiresAt,
		CreatedAt:  time.Now(),
	}, nil
}

func (s *stubService) RemoveFromAllowlist(_ context.Context, _ *models.RemoveAllowlistRequest) error {
	return s.removeErr
}

func (s *stubService) ListAllowlist(_ context.Context) ([]*models.AllowlistEntry, error) {
	return s.entries, nil
}

func (s *stubService) ResetBudget(_ context.Context, req *models.ResetBudgetRequest) error {
	s.lastReset = req
	return s.resetErr
}

func (s *stubService) InspectBudget(_ context.Context, _ string) (float64, error) {
	return s.remaining, nil
}

func newTestRouter(svc Service) chi.Router {
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterAdmin(r)
	return r
}

func TestHandleAddAllowlist(t *testing.T) {
	t.Run("valid request returns entry", func(t *testing.T) {
		svc := &stubService{}
		router := newTestRouter(svc)

		body := `{"identifier": "203.0.113.7", "reason": "trusted office egress"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/abuse/allowlist", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"allowlisted":true`)
		require.NotNil(t, svc.lastAdd)
		assert.Equal(t, "203.0.113.7", svc.lastAdd.Identifier)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		req := httptest.NewRequest(http.MethodPost, "/admin/abuse/allowlist", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		svc := &stubService{addErr: dErrors.New(dErrors.CodeValidation, "identifier is required")}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/admin/abuse/allowlist", strings.NewReader(`{"reason": "x"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation_failed")
	})
}

func TestHandleRemoveAllowlist(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodDelete, "/admin/abuse/allowlist", strings.NewReader(`{"identifier": "203.0.113.7"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleListAllowlist(t *testing.T) {
	t.Run("empty list returns empty array", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		req := httptest.NewRequest(http.MethodGet, "/admin/abuse/allowlist", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	t.Run("entries are returned", func(t *testing.T) {
		svc := &stubService{entries: []*models.AllowlistEntry{
			{ID: "e-1", Identifier: "partner-7", Reason: "trusted integration"},
		}}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/admin/abuse/allowlist", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "partner-7")
	})
}

func TestHandleResetBudget(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/admin/abuse/budget/reset", strings.NewReader(`{"client_id": "203.0.113.7"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, svc.lastReset)
	assert.Equal(t, "203.0.113.7", svc.lastReset.ClientID)
}

func TestHandleInspectBudget(t *testing.T) {
	svc := &stubService{remaining: 2.5}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/abuse/budget/203.0.113.7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remaining":2.5`)
}
