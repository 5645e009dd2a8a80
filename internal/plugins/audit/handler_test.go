package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// --- Mock Service ---

// mockAuditService implements Service for handler tests.
type mockAuditService struct {
	recentFn  func(ctx context.Context, limit int) ([]Entry, error)
	dayFn     func(ctx context.Context, date string) ([]Entry, error)
	cleanupFn func(ctx context.Context) ([]string, error)
}

func (m *mockAuditService) Record(ctx context.Context, eventType string, data map[string]any) error {
	return nil
}

func (m *mockAuditService) RecordWithRequestID(ctx context.Context, requestID, eventType string, data map[string]any) error {
	return nil
}

func (m *mockAuditService) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockAuditService) Day(ctx context.Context, date string) ([]Entry, error) {
	if m.dayFn != nil {
		return m.dayFn(ctx, date)
	}
	return nil, nil
}

func (m *mockAuditService) Cleanup(ctx context.Context) ([]string, error) {
	if m.cleanupFn != nil {
		return m.cleanupFn(ctx)
	}
	return nil, nil
}

// cleanupRequest runs one POST /cron/cleanup-logs through the handler.
func cleanupRequest(t *testing.T, h *Handler, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/cron/cleanup-logs", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h.Cleanup(c)
}

func TestCleanup_ValidSecret(t *testing.T) {
	called := false
	svc := &mockAuditService{
		cleanupFn: func(ctx context.Context) ([]string, error) {
			called = true
			return []string{"logs:2026-08-20"}, nil
		},
	}

	h := NewHandler(svc, "topsecret")
	rec, err := cleanupRequest(t, h, "Bearer topsecret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected cleanup to run")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "logs:2026-08-20") {
		t.Errorf("expected deleted keys in response, got %s", rec.Body.String())
	}
}

func TestCleanup_WrongSecret(t *testing.T) {
	svc := &mockAuditService{
		cleanupFn: func(ctx context.Context) ([]string, error) {
			t.Error("cleanup must not run without valid auth")
			return nil, nil
		},
	}

	h := NewHandler(svc, "topsecret")
	_, err := cleanupRequest(t, h, "Bearer wrong")
	assertAppError(t, err, 401)
}

func TestCleanup_MissingHeader(t *testing.T) {
	h := NewHandler(&mockAuditService{}, "topsecret")
	_, err := cleanupRequest(t, h, "")
	assertAppError(t, err, 401)
}

func TestCleanup_EmptySecretRejectsEverything(t *testing.T) {
	h := NewHandler(&mockAuditService{}, "")

	// Even "Bearer " (matching an empty secret byte-for-byte) is rejected.
	_, err := cleanupRequest(t, h, "Bearer ")
	assertAppError(t, err, 401)
}

func TestRecent_ParsesLimit(t *testing.T) {
	var captured int
	svc := &mockAuditService{
		recentFn: func(ctx context.Context, limit int) ([]Entry, error) {
			captured = limit
			return []Entry{{Type: EventEmailSuccess}}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/logs/recent?limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHandler(svc, "")
	if err := h.Recent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured != 5 {
		t.Errorf("expected limit 5, got %d", captured)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRecent_RejectsBadLimit(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/logs/recent?limit=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHandler(&mockAuditService{}, "")
	err := h.Recent(c)
	assertAppError(t, err, 400)
}
