package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/keyxmakerx/courier/internal/apperror"
	"github.com/keyxmakerx/courier/internal/config"
)

// Recorder is the audit-log dependency. Satisfied by audit.Service; the
// local interface keeps this package testable without the audit plugin.
type Recorder interface {
	Record(ctx context.Context, eventType string, data map[string]any) error
}

// Service resolves and manages the layered email configuration.
type Service interface {
	// Resolve returns the effective settings for a session, applying the
	// precedence chain: request overrides > stored session settings > env
	// defaults > hardcoded sender fallbacks. Missing fields never error.
	Resolve(ctx context.Context, sessionID string, overrides EmailSettings) (EmailSettings, error)

	// Update merges the provided fields into the session's stored settings
	// and persists them with credentials encrypted. Returns the new stored
	// state. No validation that the SMTP values are reachable -- applying
	// settings always succeeds once they are stored.
	Update(ctx context.Context, sessionID string, over EmailSettings) (EmailSettings, error)

	// Reset deletes the session's stored settings so resolution derives
	// purely from environment defaults again. Idempotent. Returns the env
	// defaults.
	Reset(ctx context.Context, sessionID string) (EmailSettings, error)

	// EnvDefaults returns the settings loaded from the environment at
	// process start.
	EnvDefaults() EmailSettings

	// ExportFile writes the session's resolved settings as JSON to the
	// configured settings file. Returns the path written.
	ExportFile(ctx context.Context, sessionID string) (string, error)
}

// service implements Service.
type service struct {
	repo     SettingsRepository
	recorder Recorder
	env      EmailSettings
	secret   string
	filePath string
}

// NewService creates a settings service. The env defaults are captured once
// from config; later env changes are invisible, same as any 12-factor app.
func NewService(repo SettingsRepository, recorder Recorder, cfg *config.Config) Service {
	return &service{
		repo:     repo,
		recorder: recorder,
		env: EmailSettings{
			SMTPHost:    cfg.Mail.SMTPHost,
			SMTPPort:    cfg.Mail.SMTPPort,
			SMTPUser:    cfg.Mail.SMTPUser,
			SMTPPass:    cfg.Mail.SMTPPass,
			FromEmail:   cfg.Mail.FromEmail,
			FromName:    cfg.Mail.FromName,
			BrevoAPIKey: cfg.Mail.BrevoAPIKey,
		},
		secret:   cfg.SecretKey,
		filePath: cfg.SettingsFile,
	}
}

// Resolve layers overrides > stored session > env > fallbacks.
func (s *service) Resolve(ctx context.Context, sessionID string, overrides EmailSettings) (EmailSettings, error) {
	stored, err := s.loadStored(ctx, sessionID)
	if err != nil {
		return EmailSettings{}, err
	}

	resolved := s.env.merge(stored).merge(overrides)

	// Sender identity fallbacks sit below everything else.
	if resolved.FromName == "" {
		resolved.FromName = fallbackFromName
	}
	if resolved.FromEmail == "" {
		resolved.FromEmail = fallbackFromEmail
	}

	return resolved, nil
}

// Update merges the provided fields into the stored session settings and
// audit-logs masked before/after snapshots.
func (s *service) Update(ctx context.Context, sessionID string, over EmailSettings) (EmailSettings, error) {
	before, err := s.loadStored(ctx, sessionID)
	if err != nil {
		return EmailSettings{}, err
	}

	after := before.merge(over)

	row, err := s.toStored(after)
	if err != nil {
		return EmailSettings{}, apperror.NewInternal(fmt.Errorf("encrypting session settings: %w", err))
	}
	if err := s.repo.Save(ctx, sessionID, row); err != nil {
		return EmailSettings{}, apperror.NewInternal(fmt.Errorf("saving session settings: %w", err))
	}

	// Fire-and-forget: a failed audit write never fails the update.
	_ = s.recorder.Record(ctx, "settings_update", map[string]any{
		"sessionId": sessionID,
		"before":    s.env.merge(before).snapshot(),
		"after":     s.env.merge(after).snapshot(),
	})

	slog.Info("session settings updated",
		slog.String("session_id", sessionID),
		slog.Bool("smtp_complete", s.env.merge(after).SMTPComplete()),
		slog.Bool("provider_complete", s.env.merge(after).ProviderComplete()),
	)

	return after, nil
}

// Reset deletes the stored session settings.
func (s *service) Reset(ctx context.Context, sessionID string) (EmailSettings, error) {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return EmailSettings{}, apperror.NewInternal(fmt.Errorf("resetting session settings: %w", err))
	}

	_ = s.recorder.Record(ctx, "settings_reset", map[string]any{
		"sessionId": sessionID,
	})

	return s.env, nil
}

// EnvDefaults returns the env-derived settings.
func (s *service) EnvDefaults() EmailSettings {
	return s.env
}

// ExportFile writes the resolved settings to the configured file path as
// indented JSON. The file carries plaintext credentials -- it is a local
// convenience for self-hosted deployments, not a secure store.
func (s *service) ExportFile(ctx context.Context, sessionID string) (string, error) {
	resolved, err := s.Resolve(ctx, sessionID, EmailSettings{})
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("encoding settings file: %w", err))
	}

	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", apperror.NewInternal(fmt.Errorf("creating settings dir: %w", err))
		}
	}
	if err := os.WriteFile(s.filePath, payload, 0o600); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("writing settings file: %w", err))
	}

	return s.filePath, nil
}

// loadStored fetches and decrypts the stored session settings. A missing
// session yields the zero value.
func (s *service) loadStored(ctx context.Context, sessionID string) (EmailSettings, error) {
	row, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return EmailSettings{}, apperror.NewInternal(fmt.Errorf("loading session settings: %w", err))
	}
	if row == nil {
		return EmailSettings{}, nil
	}
	return s.fromStored(row)
}

// toStored encrypts credentials into the at-rest representation.
func (s *service) toStored(es EmailSettings) (*storedSettings, error) {
	passEnc, err := encrypt([]byte(es.SMTPPass), s.secret)
	if err != nil {
		return nil, err
	}
	keyEnc, err := encrypt([]byte(es.BrevoAPIKey), s.secret)
	if err != nil {
		return nil, err
	}

	return &storedSettings{
		SMTPHost:    es.SMTPHost,
		SMTPPort:    es.SMTPPort,
		SMTPUser:    es.SMTPUser,
		SMTPPassEnc: passEnc,
		FromEmail:   es.FromEmail,
		FromName:    es.FromName,
		BrevoKeyEnc: keyEnc,
	}, nil
}

// fromStored decrypts the at-rest representation back into settings.
func (s *service) fromStored(row *storedSettings) (EmailSettings, error) {
	pass, err := decrypt(row.SMTPPassEnc, s.secret)
	if err != nil {
		return EmailSettings{}, apperror.NewInternal(fmt.Errorf("decrypting smtp password: %w", err))
	}
	key, err := decrypt(row.BrevoKeyEnc, s.secret)
	if err != nil {
		return EmailSettings{}, apperror.NewInternal(fmt.Errorf("decrypting api key: %w", err))
	}

	return EmailSettings{
		SMTPHost:    row.SMTPHost,
		SMTPPort:    row.SMTPPort,
		SMTPUser:    row.SMTPUser,
		SMTPPass:    string(pass),
		FromEmail:   row.FromEmail,
		FromName:    row.FromName,
		BrevoAPIKey: string(key),
	}, nil
}
