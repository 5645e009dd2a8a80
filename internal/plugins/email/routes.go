package email

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the email endpoint.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/email", h.Status)
	e.POST("/email", h.Post)
}
