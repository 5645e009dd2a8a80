package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/courier/internal/middleware"
)

// Handler handles the settings collaborator endpoints: the file export and
// the raw environment dump.
type Handler struct {
	service Service
}

// NewHandler creates a new settings handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Export persists the session's resolved settings to the local settings
// file (POST /settings). The response echoes the settings masked.
func (h *Handler) Export(c echo.Context) error {
	sessionID := middleware.SessionID(c)

	path, err := h.service.ExportFile(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}

	resolved, err := h.service.Resolve(c.Request().Context(), sessionID, EmailSettings{})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Settings saved to file",
		"path":     path,
		"settings": resolved.Masked(),
	})
}

// Env returns the raw env-derived configuration including secrets
// (GET /env). Kept for parity with the settings UI's debug view.
// TODO: drop this endpoint once the UI stops depending on it; exposing
// unmasked credentials over HTTP is a known hardening gap.
func (h *Handler) Env(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"settings": h.service.EnvDefaults(),
	})
}
