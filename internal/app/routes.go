package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/courier/internal/plugins/audit"
	"github.com/keyxmakerx/courier/internal/plugins/email"
	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

// RegisterRoutes wires up all plugins and registers their routes. This is
// the single place where services are constructed and aggregated, so the
// dependency graph between plugins is visible at a glance.
//
// Returns the audit service so main.go can hand it to the cron scheduler.
func (a *App) RegisterRoutes() audit.Service {
	e := a.Echo

	// Health check endpoint for Docker health monitoring. Redis down means
	// unhealthy: both the audit log and the settings store need it.
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"redis":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Plugin wiring ---
	// audit has no dependencies on the other plugins; settings and email
	// both record into it.

	auditService := audit.NewService(audit.NewLogRepository(a.Redis))
	audit.RegisterRoutes(e, audit.NewHandler(auditService, a.Config.Cron.Secret))

	settingsService := settings.NewService(
		settings.NewSettingsRepository(a.Redis),
		auditService,
		a.Config,
	)
	settings.RegisterRoutes(e, settings.NewHandler(settingsService))

	emailService := email.NewService(
		settingsService,
		auditService,
		email.NewSMTPSender(),
		email.NewBrevoSender(),
	)
	email.RegisterRoutes(e, email.NewHandler(emailService, settingsService, a.Config.Env))

	return auditService
}
