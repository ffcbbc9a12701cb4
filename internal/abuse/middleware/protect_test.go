package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/internal/abuse/models"
	"formgate/pkg/requestcontext"
)

type stubAdmitter struct {
	decision models.GateDecision
	err      error

	gotClientID string
	gotSub      models.Submission
	calls       int
}

func (s *stubAdmitter) Admit(_ context.Context, clientID string, sub models.Submission) (models.GateDecision, error) {
	s.calls++
	s.gotClientID = clientID
	s.gotSub = sub
	return s.decision, s.err
}

func postForm(t *testing.T, mw *Middleware, next http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mw.Protect(next).ServeHTTP(rec, req)
	return rec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProtect_AdmittedPassesThrough(t *testing.T) {
	verdict := &models.RiskVerdict{Score: 10, Reasons: []string{}}
	stub := &stubAdmitter{decision: models.GateDecision{Admitted: true, Remaining: 3, Verdict: verdict}}
	mw := New(stub, discardLogger())

	var seen models.GateDecision
	var seenOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = DecisionFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})

	rec := postForm(t, mw, next, url.Values{"message": {"hello there"}})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.True(t, seenOK, "handler should see the gate decision")
	assert.True(t, seen.Admitted)
	assert.Equal(t, "hello there", stub.gotSub.Fields["message"])
}

func TestProtect_RateLimitedReturns429(t *testing.T) {
	stub := &stubAdmitter{decision: models.GateDecision{RateLimited: true}}
	mw := New(stub, discardLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run for rate-limited submissions")
	})

	rec := postForm(t, mw, next, url.Values{"message": {"hello"}})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestProtect_SpamReturns400(t *testing.T) {
	verdict := &models.RiskVerdict{IsSpam: true, Score: 95, Reasons: []string{"honeypot field filled"}}
	stub := &stubAdmitter{decision: models.GateDecision{Verdict: verdict}}
	mw := New(stub, discardLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run for rejected submissions")
	})

	rec := postForm(t, mw, next, url.Values{"message": {"buy now"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "submission_rejected")
}

func TestProtect_GateErrorFailsOpen(t *testing.T) {
	stub := &stubAdmitter{err: errors.New("store unavailable")}
	mw := New(stub, discardLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := postForm(t, mw, next, url.Values{"message": {"hello"}})

	assert.Equal(t, http.StatusAccepted, rec.Code, "a broken gate must not take the endpoint down")
}

func TestProtect_TimingFieldIsConsumed(t *testing.T) {
	stub := &stubAdmitter{decision: models.GateDecision{Admitted: true}}
	mw := New(stub, discardLogger())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	renderedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := renderedAt.Add(42 * time.Second)

	form := url.Values{
		"message":   {"hello"},
		TimingField: {renderedAt.Format(time.RFC3339)},
	}
	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(requestcontext.WithClock(req.Context(), func() time.Time { return now }))

	rec := httptest.NewRecorder()
	mw.Protect(next).ServeHTTP(rec, req)

	require.Equal(t, 1, stub.calls)
	assert.NotContains(t, stub.gotSub.Fields, TimingField, "timing field is metadata, not content")
	assert.True(t, stub.gotSub.RenderedAt.Equal(renderedAt))
	assert.True(t, stub.gotSub.SubmittedAt.Equal(now))

	elapsed, ok := stub.gotSub.Elapsed()
	require.True(t, ok)
	assert.Equal(t, 42*time.Second, elapsed)
}

func TestProtect_GarbageTimingTreatedAsAbsent(t *testing.T) {
	stub := &stubAdmitter{decision: models.GateDecision{Admitted: true}}
	mw := New(stub, discardLogger())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	postForm(t, mw, next, url.Values{
		"message":   {"hello"},
		TimingField: {"not-a-timestamp"},
	})

	require.Equal(t, 1, stub.calls)
	assert.False(t, stub.gotSub.HasTiming())
}
