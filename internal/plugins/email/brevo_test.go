package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

func brevoTestSettings() settings.EmailSettings {
	return settings.EmailSettings{
		BrevoAPIKey: "xkeysib-test",
		FromEmail:   "noreply@example.com",
		FromName:    "Courier",
	}
}

func TestBrevoSend_Success(t *testing.T) {
	var captured brevoPayload
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"messageId": "<msg-1@brevo>"})
	}))
	defer srv.Close()

	sender := NewBrevoSenderWithEndpoint(srv.URL)
	result, err := sender.Send(context.Background(), brevoTestSettings(), &Message{
		To:      []string{"a@example.com"},
		Subject: "hello",
		Text:    "plain",
		HTML:    "<p>rich</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MessageID != "<msg-1@brevo>" {
		t.Errorf("expected provider message ID, got %q", result.MessageID)
	}
	if apiKey != "xkeysib-test" {
		t.Errorf("expected api key header, got %q", apiKey)
	}
	if captured.Sender.Email != "noreply@example.com" || captured.Sender.Name != "Courier" {
		t.Errorf("unexpected sender: %+v", captured.Sender)
	}
	if captured.Subject != "hello" || captured.TextContent != "plain" || captured.HTMLContent != "<p>rich</p>" {
		t.Errorf("unexpected payload: %+v", captured)
	}
}

func TestBrevoSend_FirstRecipientOnly(t *testing.T) {
	var captured brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]string{"messageId": "x"})
	}))
	defer srv.Close()

	sender := NewBrevoSenderWithEndpoint(srv.URL)
	_, err := sender.Send(context.Background(), brevoTestSettings(), &Message{
		To:      []string{"first@example.com", "second@example.com"},
		Subject: "hello",
		Text:    "body",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured.To) != 1 || captured.To[0].Email != "first@example.com" {
		t.Errorf("expected only the first recipient, got %+v", captured.To)
	}
}

func TestBrevoSend_JSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code": "unauthorized", "message": "Key not found"}`))
	}))
	defer srv.Close()

	sender := NewBrevoSenderWithEndpoint(srv.URL)
	_, err := sender.Send(context.Background(), brevoTestSettings(), &Message{
		To:      []string{"a@example.com"},
		Subject: "hello",
		Text:    "body",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if provErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", provErr.Status)
	}
	if provErr.Detail != "Key not found" {
		t.Errorf("expected detail from message field, got %q", provErr.Detail)
	}
	if !strings.Contains(provErr.Body, "unauthorized") {
		t.Errorf("expected full body to be retained, got %q", provErr.Body)
	}
}

func TestBrevoSend_NonJSONErrorTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(long))
	}))
	defer srv.Close()

	sender := NewBrevoSenderWithEndpoint(srv.URL)
	_, err := sender.Send(context.Background(), brevoTestSettings(), &Message{
		To:      []string{"a@example.com"},
		Subject: "hello",
		Text:    "body",
	})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if len(provErr.Detail) > maxErrorDetail+len("...") {
		t.Errorf("expected detail truncated to %d chars, got %d", maxErrorDetail, len(provErr.Detail))
	}
	if provErr.Body != long {
		t.Error("expected full body to be retained for the audit log")
	}
}

func TestBrevoSend_EmptyErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := NewBrevoSenderWithEndpoint(srv.URL)
	_, err := sender.Send(context.Background(), brevoTestSettings(), &Message{
		To:      []string{"a@example.com"},
		Subject: "hello",
		Text:    "body",
	})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if provErr.Detail != "provider rejected the request" {
		t.Errorf("expected generic detail for empty body, got %q", provErr.Detail)
	}
}

func TestBrevoSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed immediately so the dial fails.

	sender := NewBrevoSenderWithEndpoint(srv.URL)
	_, err := sender.Send(context.Background(), brevoTestSettings(), &Message{
		To:      []string{"a@example.com"},
		Subject: "hello",
		Text:    "body",
	})
	if err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		t.Error("network failures must not be ProviderErrors")
	}
}
