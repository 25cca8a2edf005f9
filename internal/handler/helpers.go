package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ai-feedback-api/internal/observability"
	"github.com/noah-isme/ai-feedback-api/internal/service"
	"github.com/noah-isme/ai-feedback-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[lowerFirst(fieldErr.Field())] = fieldErr.Tag()
	}
	return details
}

func lowerFirst(value string) string {
	if value == "" {
		return value
	}
	return strings.ToLower(value[:1]) + value[1:]
}

// respondError maps service errors to status codes. Unexpected faults are logged
// and rendered without internals.
func respondError(c *fiber.Ctx, base zerolog.Logger, err error) error {
	var details map[string]interface{}
	var failure *service.SubmissionFailure
	if errors.As(err, &failure) && failure.TraceID != "" {
		details = map[string]interface{}{"trace_id": failure.TraceID}
	}

	if isValidationError(err) {
		if details == nil {
			details = map[string]interface{}{}
		}
		details["fields"] = validationDetails(err)
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	var domainErr *service.DomainError
	if errors.As(err, &domainErr) {
		status := fiber.StatusInternalServerError
		switch domainErr.Kind {
		case service.KindNotFound:
			status = fiber.StatusNotFound
		case service.KindConflict:
			status = fiber.StatusConflict
		case service.KindValidation:
			status = fiber.StatusBadRequest
		case service.KindUpstream, service.KindFormat:
			status = fiber.StatusBadGateway
			observability.Logger(c.UserContext(), base).Warn().Err(err).Msg("upstream failure")
		}
		return utils.Fail(c, status, domainErr.Message, nilIfEmpty(details))
	}

	observability.Logger(c.UserContext(), base).Error().Err(err).Msg("internal server error")
	return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nilIfEmpty(details))
}

func nilIfEmpty(details map[string]interface{}) interface{} {
	if len(details) == 0 {
		return nil
	}
	return details
}
