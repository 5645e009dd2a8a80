package audit

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the audit log routes on the root router.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/logs/recent", h.Recent)
	e.GET("/logs/:date", h.Day)
	e.POST("/cron/cleanup-logs", h.Cleanup)
}
