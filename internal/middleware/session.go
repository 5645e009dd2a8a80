package middleware

import "github.com/labstack/echo/v4"

// HeaderSessionID identifies the client session whose stored settings
// overrides apply to the request.
const HeaderSessionID = "X-Session-ID"

// DefaultSessionID is used when the client sends no session header. All
// such clients share one settings scope, which matches the old behavior of
// keeping applied settings in process-wide state.
const DefaultSessionID = "default"

// SessionID returns the settings session identifier for the request.
func SessionID(c echo.Context) string {
	if id := c.Request().Header.Get(HeaderSessionID); id != "" {
		return id
	}
	return DefaultSessionID
}
