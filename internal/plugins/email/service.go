package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keyxmakerx/courier/internal/apperror"
	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

// Transport is the contract both delivery mechanisms implement.
type Transport interface {
	Send(ctx context.Context, cfg settings.EmailSettings, msg *Message) (*Result, error)
}

// Recorder is the audit-log dependency, satisfied by audit.Service.
type Recorder interface {
	RecordWithRequestID(ctx context.Context, requestID, eventType string, data map[string]any) error
}

// Service routes a validated send request to one of the two transports and
// records the attempt and its outcome. Transport failures are uniform: any
// error becomes a 500 with the transport's message; nothing is retried.
type Service struct {
	settings settings.Service
	recorder Recorder
	smtp     Transport
	provider Transport
}

// NewService creates the dispatch service.
func NewService(st settings.Service, recorder Recorder, smtp, provider Transport) *Service {
	return &Service{
		settings: st,
		recorder: recorder,
		smtp:     smtp,
		provider: provider,
	}
}

// Send validates, resolves settings, dispatches, and logs. The requestID
// ties the attempt/outcome audit entries together.
func (s *Service) Send(ctx context.Context, sessionID, requestID string, req *SendRequest) (*Result, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, apperror.NewBadRequest("Missing required fields: " + strings.Join(missing, ", "))
	}

	cfg, err := s.settings.Resolve(ctx, sessionID, req.EmailSettings)
	if err != nil {
		return nil, err
	}

	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = MethodSMTP
	}

	var transport Transport
	switch method {
	case MethodSMTP:
		if !cfg.SMTPComplete() {
			return nil, apperror.NewNeedsSettings("Missing SMTP configuration")
		}
		transport = s.smtp
	case MethodProvider, MethodBrevo:
		if !cfg.ProviderComplete() {
			return nil, apperror.NewNeedsSettings("Missing Brevo API Key")
		}
		transport = s.provider
		method = MethodProvider
	default:
		return nil, apperror.NewBadRequest(fmt.Sprintf("Unknown send method %q", req.Method))
	}

	msg := req.message()

	// Attempt entry goes in before dispatch so a crash mid-send still
	// leaves a trace. Audit failures never block the send.
	_ = s.recorder.RecordWithRequestID(ctx, requestID, "email_attempt", map[string]any{
		"method":  method,
		"to":      msg.To,
		"subject": msg.Subject,
		"settings": map[string]any{
			"host": cfg.SMTPHost,
			"port": cfg.SMTPPort,
			"user": cfg.SMTPUser,
			"from": cfg.FromEmail,
		},
	})

	result, err := transport.Send(ctx, cfg, msg)
	if err != nil {
		errData := map[string]any{
			"method": method,
			"error":  err.Error(),
		}
		// Keep the raw provider body in the log even though clients only
		// see the sanitized detail.
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			errData["status"] = provErr.Status
			errData["responseBody"] = provErr.Body
		}
		_ = s.recorder.RecordWithRequestID(ctx, requestID, "email_error", errData)

		return nil, apperror.NewTransport(fmt.Sprintf("Failed to send email: %s", err.Error()), err)
	}

	_ = s.recorder.RecordWithRequestID(ctx, requestID, "email_success", map[string]any{
		"method":    method,
		"messageId": result.MessageID,
	})

	return result, nil
}
