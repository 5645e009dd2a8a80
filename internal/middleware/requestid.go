package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestIDKey is the echo context key under which the request ID is stored.
const requestIDKey = "courier_request_id"

// HeaderRequestID is the header the ID is read from and echoed back on.
const HeaderRequestID = "X-Request-ID"

// WithRequestID returns middleware that assigns every request a UUID v4
// request ID. An incoming X-Request-ID header is honored so upstream
// proxies can correlate logs; otherwise a fresh ID is generated. The ID
// is stored on the context and echoed in the response header, and it ties
// together the attempt/success/error entries the audit log writes for a
// single send.
func WithRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			c.Set(requestIDKey, id)
			c.Response().Header().Set(HeaderRequestID, id)

			return next(c)
		}
	}
}

// RequestID returns the request ID assigned by WithRequestID, or "" if the
// middleware is not installed.
func RequestID(c echo.Context) string {
	if id, ok := c.Get(requestIDKey).(string); ok {
		return id
	}
	return ""
}
