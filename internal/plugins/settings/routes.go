package settings

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the settings collaborator routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/settings", h.Export)
	e.GET("/env", h.Env)
}
