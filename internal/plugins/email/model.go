// Package email is the dispatch core: it validates send requests, resolves
// the effective settings, picks one of the two transports (direct SMTP
// relay or the Brevo HTTP API), and records the attempt and its outcome in
// the audit log. One message per call, no pooling, no retries.
package email

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

// Transport method selectors. "brevo" is accepted as an alias for
// "provider" because older clients send it.
const (
	MethodSMTP     = "smtp"
	MethodProvider = "provider"
	MethodBrevo    = "brevo"
)

// Request action markers on POST /email. Anything else is a send.
const (
	ActionUpdateSettings = "updateSettings"
	ActionResetSettings  = "resetSettings"
)

// Recipients accepts either a single JSON string or an array of strings,
// because both shapes exist in the wild among API clients.
type Recipients []string

// UnmarshalJSON implements the string-or-array tolerance.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*r = nil
			return nil
		}
		*r = Recipients{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("to must be a string or an array of strings")
	}
	*r = Recipients(many)
	return nil
}

// SendRequest is the POST /email body. Settings overrides ride along inline
// with the message fields and take top precedence for this request only.
type SendRequest struct {
	settings.EmailSettings

	Action  string     `json:"action,omitempty"`
	To      Recipients `json:"to,omitempty"`
	Subject string     `json:"subject,omitempty"`
	Text    string     `json:"text,omitempty"`
	HTML    string     `json:"html,omitempty"`
	Method  string     `json:"method,omitempty"`
}

// Message is the validated, ready-to-dispatch email.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Result reports an accepted dispatch.
type Result struct {
	// MessageID is the transport-assigned (SMTP: locally generated,
	// Brevo: provider-returned) message identifier.
	MessageID string `json:"messageId"`
}

// MissingFields returns the names of required send fields that are absent.
// A request needs to, subject, and at least one of text/html.
func (r *SendRequest) MissingFields() []string {
	var missing []string
	if len(r.To) == 0 || allBlank(r.To) {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(r.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(r.Text) == "" && strings.TrimSpace(r.HTML) == "" {
		missing = append(missing, "text or html")
	}
	return missing
}

// message converts the request into a dispatchable Message. Call only
// after MissingFields returned empty.
func (r *SendRequest) message() *Message {
	to := make([]string, 0, len(r.To))
	for _, addr := range r.To {
		if v := strings.TrimSpace(addr); v != "" {
			to = append(to, v)
		}
	}
	return &Message{
		To:      to,
		Subject: strings.TrimSpace(r.Subject),
		Text:    r.Text,
		HTML:    r.HTML,
	}
}

func allBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
