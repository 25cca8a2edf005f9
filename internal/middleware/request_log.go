package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/repository"
)

// RequestLog stores an access record for every /api request after the response is written.
// Persistence failures are logged and never change the response.
func RequestLog(repo repository.RequestLogRepository, logger zerolog.Logger) fiber.Handler {
	logger = logger.With().Str("component", "request_log").Logger()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), "/api/") {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := models.RequestLog{
			Method:        c.Method(),
			URI:           c.OriginalURL(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			IPAddress:     c.IP(),
			IsSuccess:     status < fiber.StatusBadRequest,
			HTTPStatus:    status,
			LatencyMs:     time.Since(start).Milliseconds(),
			CorrelationID: GetCorrelationID(c),
		}

		ctx := context.WithoutCancel(c.UserContext())
		if writeErr := repo.Create(ctx, &entry); writeErr != nil {
			logger.Warn().Err(writeErr).Str("correlation_id", entry.CorrelationID).Msg("failed to store request log")
		}

		return err
	}
}
