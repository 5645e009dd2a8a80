package audit

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/courier/internal/apperror"
)

// Handler handles HTTP requests for reading the audit log and triggering
// cleanup of aged buckets.
type Handler struct {
	service Service

	// cronSecret authorizes the cleanup endpoint. Empty means the endpoint
	// rejects everything (the secret is required in production config).
	cronSecret string
}

// NewHandler creates a new audit handler.
func NewHandler(service Service, cronSecret string) *Handler {
	return &Handler{service: service, cronSecret: cronSecret}
}

// Recent returns the capped recent-events list (GET /logs/recent?limit=N).
func (h *Handler) Recent(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apperror.NewBadRequest("limit must be an integer")
		}
		limit = n
	}

	entries, err := h.service.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(entries),
		"entries": entries,
	})
}

// Day returns one day bucket (GET /logs/:date).
func (h *Handler) Day(c echo.Context) error {
	entries, err := h.service.Day(c.Request().Context(), c.Param("date"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"date":    c.Param("date"),
		"count":   len(entries),
		"entries": entries,
	})
}

// Cleanup deletes log buckets older than one day (POST /cron/cleanup-logs).
// Authorized by a bearer token so only the external scheduler can hit it.
func (h *Handler) Cleanup(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	expected := "Bearer " + h.cronSecret

	if h.cronSecret == "" ||
		subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) != 1 {
		return apperror.NewUnauthorized("Unauthorized")
	}

	deleted, err := h.service.Cleanup(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Log cleanup completed successfully",
		"deletedKeys": deleted,
	})
}
