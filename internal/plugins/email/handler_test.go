package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

// postEmail runs one POST /email through the handler and decodes the
// response body on success.
func postEmail(t *testing.T, h *Handler, payload string) (*httptest.ResponseRecorder, map[string]any, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/email", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Post(c)
	var body map[string]any
	if err == nil {
		if decodeErr := json.Unmarshal(rec.Body.Bytes(), &body); decodeErr != nil {
			t.Fatalf("decoding response: %v", decodeErr)
		}
	}
	return rec, body, err
}

func newTestHandler(resolved settings.EmailSettings, transports ...Transport) *Handler {
	st := &stubSettings{resolved: resolved}
	smtp := Transport(&mockTransport{})
	provider := Transport(&mockTransport{})
	if len(transports) > 0 {
		smtp = transports[0]
	}
	if len(transports) > 1 {
		provider = transports[1]
	}
	svc := NewService(st, &captureRecorder{}, smtp, provider)
	return NewHandler(svc, st, "development")
}

// --- Status Tests ---

func TestStatus_MasksCredentials(t *testing.T) {
	cfg := smtpReadySettings()
	cfg.SMTPPass = "hunter2hunter2"
	h := newTestHandler(cfg)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/email", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Status(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "hunter2hunter2") {
		t.Error("status response leaked the smtp password")
	}

	var payload map[string]any
	json.Unmarshal(rec.Body.Bytes(), &payload)
	if payload["configured"] != true {
		t.Errorf("expected configured true, got %v", payload["configured"])
	}
	if payload["environment"] != "development" {
		t.Errorf("expected environment development, got %v", payload["environment"])
	}
	if payload["success"] != true {
		t.Errorf("expected success true, got %v", payload["success"])
	}
}

func TestStatus_UnconfiguredReportsFalse(t *testing.T) {
	h := newTestHandler(settings.EmailSettings{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/email", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Status(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload map[string]any
	json.Unmarshal(rec.Body.Bytes(), &payload)
	if payload["configured"] != false {
		t.Errorf("expected configured false, got %v", payload["configured"])
	}
}

// --- Action Tests ---

func TestPost_UpdateSettingsWithNoFields(t *testing.T) {
	h := newTestHandler(settings.EmailSettings{})

	_, _, err := postEmail(t, h, `{"action": "updateSettings"}`)
	if err == nil {
		t.Fatal("expected error for empty settings update")
	}
	if !strings.Contains(err.Error(), "No settings provided") {
		t.Errorf("expected no-settings message, got %v", err)
	}
}

func TestPost_UpdateSettingsApplies(t *testing.T) {
	h := newTestHandler(settings.EmailSettings{})

	rec, body, err := postEmail(t, h, `{"action": "updateSettings", "smtpHost": "smtp.new.example"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "applied") {
		t.Errorf("expected applied message, got %q", msg)
	}
	if _, ok := body["settings"]; !ok {
		t.Error("expected resolved settings in response")
	}
}

func TestPost_ResetSettings(t *testing.T) {
	h := newTestHandler(smtpReadySettings())

	rec, body, err := postEmail(t, h, `{"action": "resetSettings"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	if _, ok := body["settings"]; !ok {
		t.Error("expected settings in response")
	}
}

// --- Send Tests ---

func TestPost_SendSuccess(t *testing.T) {
	h := newTestHandler(smtpReadySettings())

	rec, body, err := postEmail(t, h, `{"to": "a@example.com", "subject": "hi", "text": "body"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["message"] != "Email sent successfully" {
		t.Errorf("unexpected message %v", body["message"])
	}
	if body["messageId"] != "<mock@test>" {
		t.Errorf("expected transport message ID, got %v", body["messageId"])
	}
}

func TestPost_SendWithoutSettings(t *testing.T) {
	h := newTestHandler(settings.EmailSettings{})

	_, _, err := postEmail(t, h, `{"to": "a@example.com", "subject": "hi", "text": "body"}`)
	assertAppErrorType(t, err, "needs_settings")
}

func TestPost_UnknownActionIsTreatedAsSend(t *testing.T) {
	// An unrecognized action falls through to send validation rather than
	// being rejected outright.
	h := newTestHandler(smtpReadySettings())

	_, _, err := postEmail(t, h, `{"action": "frobnicate"}`)
	assertAppErrorType(t, err, "bad_request")
}

func TestPost_InvalidJSON(t *testing.T) {
	h := newTestHandler(settings.EmailSettings{})

	_, _, err := postEmail(t, h, `{not json`)
	assertAppErrorType(t, err, "bad_request")
}
