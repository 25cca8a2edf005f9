package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ai-feedback-api/internal/config"
	"github.com/noah-isme/ai-feedback-api/internal/handler"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler   *handler.SubmissionHandler
	RevisionHandler     *handler.RevisionHandler
	AuthHandler         *handler.AuthHandler
	JWTMiddleware       fiber.Handler
	SubmissionRateLimit fiber.Handler
	// HealthChecks are pinged by GET /health.
	HealthChecks map[string]handler.Pinger
	// DisableMetrics skips the /metrics endpoint.
	DisableMetrics bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	if deps.SubmissionHandler != nil {
		var limiters []fiber.Handler
		if deps.SubmissionRateLimit != nil {
			limiters = append(limiters, deps.SubmissionRateLimit)
		}
		deps.SubmissionHandler.Register(api.Group("/submissions"), jwtMiddleware, limiters...)
	}

	if deps.RevisionHandler != nil {
		deps.RevisionHandler.Register(api.Group("/revision"))
	}
}
