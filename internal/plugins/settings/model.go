// Package settings resolves the effective email configuration from layered
// sources: request-supplied overrides, stored per-session settings, and
// environment defaults loaded at process start. Resolution is deliberately
// lax -- a missing field never fails a request; completeness is reported as
// a flag so clients can steer the user to the settings form.
//
// Stored session settings live in Redis keyed by the client's session ID.
// Credentials are encrypted at rest and never returned to clients unmasked.
package settings

import (
	"strings"

	"github.com/keyxmakerx/courier/internal/mask"
)

// Hardcoded fallbacks at the very bottom of the resolution chain, applied
// only to sender identity so a send attempt has a usable From header even
// on a fresh deployment.
const (
	fallbackFromName  = "Email Service"
	fallbackFromEmail = "noreply@example.com"
)

// EmailSettings holds the full email configuration. All fields are strings
// and all are optional; an empty field means "not set at this layer".
type EmailSettings struct {
	SMTPHost    string `json:"smtpHost,omitempty"`
	SMTPPort    string `json:"smtpPort,omitempty"`
	SMTPUser    string `json:"smtpUser,omitempty"`
	SMTPPass    string `json:"smtpPass,omitempty"`
	FromEmail   string `json:"fromEmail,omitempty"`
	FromName    string `json:"fromName,omitempty"`
	BrevoAPIKey string `json:"brevoApiKey,omitempty"`
}

// merge returns a copy of s with every field that is present in over
// (non-empty after trimming) replaced by the override value.
func (s EmailSettings) merge(over EmailSettings) EmailSettings {
	out := s
	if v := strings.TrimSpace(over.SMTPHost); v != "" {
		out.SMTPHost = v
	}
	if v := strings.TrimSpace(over.SMTPPort); v != "" {
		out.SMTPPort = v
	}
	if v := strings.TrimSpace(over.SMTPUser); v != "" {
		out.SMTPUser = v
	}
	if v := strings.TrimSpace(over.SMTPPass); v != "" {
		out.SMTPPass = v
	}
	if v := strings.TrimSpace(over.FromEmail); v != "" {
		out.FromEmail = v
	}
	if v := strings.TrimSpace(over.FromName); v != "" {
		out.FromName = v
	}
	if v := strings.TrimSpace(over.BrevoAPIKey); v != "" {
		out.BrevoAPIKey = v
	}
	return out
}

// IsEmpty reports whether no field at all is set.
func (s EmailSettings) IsEmpty() bool {
	return s == EmailSettings{}
}

// HasAny reports whether at least one field is present (non-empty after
// trimming). Update requests with nothing present are rejected.
func (s EmailSettings) HasAny() bool {
	return !EmailSettings{}.merge(s).IsEmpty()
}

// SMTPComplete reports whether the SMTP transport has everything it needs.
// User and password are not required -- open relays exist, mostly in tests
// and internal networks.
func (s EmailSettings) SMTPComplete() bool {
	return s.SMTPHost != "" && s.SMTPPort != "" && s.FromEmail != ""
}

// ProviderComplete reports whether the Brevo transport has everything it
// needs.
func (s EmailSettings) ProviderComplete() bool {
	return s.BrevoAPIKey != "" && s.FromEmail != ""
}

// Configured reports whether at least one transport is fully usable. This
// is the flag the status endpoint exposes; resolution itself never fails
// on missing fields.
func (s EmailSettings) Configured() bool {
	return s.SMTPComplete() || s.ProviderComplete()
}

// Masked returns a copy with credentials partially redacted for responses
// and log snapshots.
func (s EmailSettings) Masked() EmailSettings {
	out := s
	out.SMTPUser = mask.Secret(s.SMTPUser)
	out.SMTPPass = mask.Secret(s.SMTPPass)
	out.BrevoAPIKey = mask.Secret(s.BrevoAPIKey)
	return out
}

// snapshot flattens settings into an audit Data map. Secrets are included
// raw here; the audit service masks them against its deny-list before
// anything is stored.
func (s EmailSettings) snapshot() map[string]any {
	return map[string]any{
		"smtpHost":    s.SMTPHost,
		"smtpPort":    s.SMTPPort,
		"smtpUser":    s.SMTPUser,
		"smtpPass":    s.SMTPPass,
		"fromEmail":   s.FromEmail,
		"fromName":    s.FromName,
		"brevoApiKey": s.BrevoAPIKey,
	}
}

// storedSettings is the at-rest representation in Redis. Credentials are
// AES-256-GCM encrypted; everything else is plaintext JSON. Internal only.
type storedSettings struct {
	SMTPHost     string `json:"smtpHost,omitempty"`
	SMTPPort     string `json:"smtpPort,omitempty"`
	SMTPUser     string `json:"smtpUser,omitempty"`
	SMTPPassEnc  []byte `json:"smtpPassEnc,omitempty"`
	FromEmail    string `json:"fromEmail,omitempty"`
	FromName     string `json:"fromName,omitempty"`
	BrevoKeyEnc  []byte `json:"brevoKeyEnc,omitempty"`
}
