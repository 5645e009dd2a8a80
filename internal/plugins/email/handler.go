package email

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/courier/internal/apperror"
	"github.com/keyxmakerx/courier/internal/middleware"
	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

// availableActions is advertised on the status endpoint so UI clients can
// discover what POST /email accepts.
var availableActions = []string{ActionUpdateSettings, ActionResetSettings, "send"}

// Handler handles the /email endpoint: status on GET, settings actions and
// sends on POST.
type Handler struct {
	dispatch *Service
	settings settings.Service
	env      string
}

// NewHandler creates a new email handler. env is the runtime environment
// name reported by the status endpoint.
func NewHandler(dispatch *Service, st settings.Service, env string) *Handler {
	return &Handler{dispatch: dispatch, settings: st, env: env}
}

// Status reports the current configuration state (GET /email). Secrets are
// masked; configured tells the client whether a send can work right now.
func (h *Handler) Status(c echo.Context) error {
	resolved, err := h.settings.Resolve(c.Request().Context(), middleware.SessionID(c), settings.EmailSettings{})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":          true,
		"message":          "Environment status retrieved",
		"status":           "ok",
		"environment":      h.env,
		"envVarsLoaded":    !h.settings.EnvDefaults().IsEmpty(),
		"configured":       resolved.Configured(),
		"settings":         resolved.Masked(),
		"availableActions": availableActions,
	})
}

// Post handles POST /email: settings updates, settings resets, and sends,
// selected by the action marker in the body.
func (h *Handler) Post(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	switch req.Action {
	case ActionUpdateSettings:
		return h.updateSettings(c, &req)
	case ActionResetSettings:
		return h.resetSettings(c)
	default:
		return h.send(c, &req)
	}
}

// updateSettings applies the supplied fields to the session's stored
// settings. Succeeds unconditionally once applied; nothing verifies the
// relay is reachable.
func (h *Handler) updateSettings(c echo.Context, req *SendRequest) error {
	if !req.EmailSettings.HasAny() {
		return apperror.NewBadRequest("No settings provided")
	}

	ctx := c.Request().Context()
	sessionID := middleware.SessionID(c)

	if _, err := h.settings.Update(ctx, sessionID, req.EmailSettings); err != nil {
		return err
	}

	resolved, err := h.settings.Resolve(ctx, sessionID, settings.EmailSettings{})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Settings applied for current session",
		"settings": resolved.Masked(),
	})
}

// resetSettings drops the session's stored settings, reverting to the
// environment defaults. Calling it again without an intervening update
// returns the same output.
func (h *Handler) resetSettings(c echo.Context) error {
	envDefaults, err := h.settings.Reset(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Settings reset to environment defaults",
		"settings": envDefaults.Masked(),
	})
}

// send validates and dispatches one email.
func (h *Handler) send(c echo.Context, req *SendRequest) error {
	result, err := h.dispatch.Send(
		c.Request().Context(),
		middleware.SessionID(c),
		middleware.RequestID(c),
		req,
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Email sent successfully",
		"messageId": result.MessageID,
	})
}
