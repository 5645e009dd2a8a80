// Package audit provides a best-effort audit log for configuration changes
// and send attempts. Entries are appended to a per-day Redis list and to a
// capped "recent" list. Writing an entry is fire-and-forget: a failure is
// logged locally and reported back, but callers never fail their primary
// operation because the audit write failed.
//
// Secrets are masked before anything is serialized. A raw credential must
// never reach Redis.
package audit

import "time"

// --- Event Type Constants ---
// Each event string follows the pattern "area_verb" for consistent
// filtering in the log views.

const (
	// EventEmailAttempt is recorded immediately before a dispatch.
	EventEmailAttempt = "email_attempt"

	// EventEmailSuccess is recorded when a transport accepts the message.
	EventEmailSuccess = "email_success"

	// EventEmailError is recorded when a transport rejects or fails.
	EventEmailError = "email_error"

	// EventSettingsUpdate is recorded when session settings are applied,
	// with masked before/after snapshots.
	EventSettingsUpdate = "settings_update"

	// EventSettingsReset is recorded when session settings are cleared back
	// to environment defaults.
	EventSettingsReset = "settings_reset"

	// EventLogCleanup is recorded by the cleanup job itself.
	EventLogCleanup = "log_cleanup"
)

// Entry represents a single recorded event. The Data map holds event
// specific fields (recipient, transport, error text, masked snapshots).
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	RequestID string         `json:"requestId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// denyList names the Data fields that are masked before storage. Matching
// is case-insensitive and applies at every nesting level, so a snapshot
// map inside Data gets the same treatment as a top-level field.
var denyList = map[string]bool{
	"smtppass":       true,
	"smtpuser":       true,
	"brevoapikey":    true,
	"providerapikey": true,
	"apikey":         true,
	"password":       true,
	"pass":           true,
	"secret":         true,
	"token":          true,
}
