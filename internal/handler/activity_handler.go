package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/service"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

// ActivityHandler wires audit trail endpoints.
type ActivityHandler struct {
	service         service.ActivityService
	defaultPageSize int
	maxPageSize     int
	logger          zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, defaultPageSize, maxPageSize int, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:         service,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches audit trail routes. Cleanup is admin-only; the router
// supplies the guard.
func (h *ActivityHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/stats", h.stats)
	router.Delete("/cleanup", adminOnly, h.cleanup)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, limit, err := pageParams(c, h.defaultPageSize, h.maxPageSize)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination parameters")
	}

	userID, err := parseQueryInt(c, "user")
	if err != nil || userID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user filter")
	}

	startDate, err := parseQueryDate(c, "startDate")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid startDate")
	}

	endDate, err := parseQueryDate(c, "endDate")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid endDate")
	}

	req := dto.ActivityListRequest{
		Page:      page,
		Limit:     limit,
		UserID:    uint(userID),
		Username:  c.Query("username"),
		UserType:  c.Query("userType"),
		Action:    c.Query("action"),
		StartDate: startDate,
		EndDate:   endDate,
	}

	entries, pagination, err := h.service.List(c.Context(), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activity logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activity logs")
	}

	return utils.SendPage(c, "activity logs retrieved", entries, pagination)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.Create(c.Context(), actorFromContext(c), payload); err != nil {
		if isValidationError(err) {
			return utils.SendValidationErrors(c, utils.ValidationMessages(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to record activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to record activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity recorded", nil)
}

func (h *ActivityHandler) stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute activity stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute activity stats")
	}

	return utils.SendSuccess(c, "activity stats computed", stats)
}

func (h *ActivityHandler) cleanup(c *fiber.Ctx) error {
	days, err := parseQueryInt(c, "days")
	if err != nil || days < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid days")
	}

	response, err := h.service.Cleanup(c.Context(), days)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("retention cleanup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "retention cleanup failed")
	}

	return utils.SendSuccess(c, "activity logs cleaned up", response)
}
