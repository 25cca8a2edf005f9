package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ai-feedback-api/internal/dto"
	"github.com/noah-isme/ai-feedback-api/internal/service"
	"github.com/noah-isme/ai-feedback-api/internal/utils"
)

// RevisionHandler exposes revision requests and the revision trail.
type RevisionHandler struct {
	service service.RevisionService
	logger  zerolog.Logger
}

// NewRevisionHandler builds a revision handler instance.
func NewRevisionHandler(service service.RevisionService, logger zerolog.Logger) *RevisionHandler {
	return &RevisionHandler{
		service: service,
		logger:  logger.With().Str("component", "revision_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *RevisionHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.detail)
}

func (h *RevisionHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateRevisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.CreateRevision(c.UserContext(), payload); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "Revision request submitted successfully", nil)
}

func (h *RevisionHandler) list(c *fiber.Ctx) error {
	var query dto.RevisionListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.FindAllRevisions(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "revisions retrieved", result.Pagination)
}

func (h *RevisionHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.FindRevisionByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "revision retrieved", result)
}
