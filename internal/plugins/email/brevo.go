package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

// brevoEndpoint is Brevo's transactional email API.
const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// brevoTimeout bounds the whole HTTP exchange. The default client has no
// timeout at all, which left sends hanging on a slow provider.
const brevoTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read and kept.
const maxErrorBody = 64 << 10

// maxErrorDetail caps the error text exposed to clients when the provider
// returns something that isn't JSON.
const maxErrorDetail = 200

// BrevoSender delivers messages through Brevo's transactional email API
// with a single authenticated JSON POST per call.
//
// Only the first recipient is sent to. That asymmetry with the SMTP
// transport is inherited behavior; confirm with product before unifying.
type BrevoSender struct {
	client   *http.Client
	endpoint string
}

// NewBrevoSender creates a Brevo transport against the production endpoint.
func NewBrevoSender() *BrevoSender {
	return &BrevoSender{
		client:   &http.Client{Timeout: brevoTimeout},
		endpoint: brevoEndpoint,
	}
}

// NewBrevoSenderWithEndpoint creates a Brevo transport against a custom
// endpoint. Used by tests to point at a stub server.
func NewBrevoSenderWithEndpoint(endpoint string) *BrevoSender {
	s := NewBrevoSender()
	s.endpoint = endpoint
	return s
}

// brevoPayload is the request body for Brevo's send endpoint.
type brevoPayload struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// ProviderError is a non-2xx answer from the provider. Detail is safe to
// show to clients; Body is the raw response for the audit log only.
type ProviderError struct {
	Status int
	Detail string
	Body   string
}

// Error implements the error interface with the sanitized detail.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("brevo: status %d: %s", e.Status, e.Detail)
}

// Send issues the POST and interprets the JSON response.
func (b *BrevoSender) Send(ctx context.Context, cfg settings.EmailSettings, msg *Message) (*Result, error) {
	payload := brevoPayload{
		Sender:      brevoContact{Name: cfg.FromName, Email: cfg.FromEmail},
		To:          []brevoContact{{Email: msg.To[0]}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building brevo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", cfg.BrevoAPIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling brevo: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("reading brevo response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Status: resp.StatusCode,
			Detail: errorDetail(raw),
			Body:   string(raw),
		}
	}

	var accepted struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(raw, &accepted); err != nil {
		return nil, fmt.Errorf("decoding brevo response: %w", err)
	}

	return &Result{MessageID: accepted.MessageID}, nil
}

// errorDetail extracts a client-safe error description from a provider
// error body. JSON bodies contribute their "message" field; anything else
// is exposed truncated. The full body only ever reaches the audit log.
func errorDetail(raw []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}

	detail := strings.TrimSpace(string(raw))
	if detail == "" {
		return "provider rejected the request"
	}
	if len(detail) > maxErrorDetail {
		detail = detail[:maxErrorDetail] + "..."
	}
	return detail
}
