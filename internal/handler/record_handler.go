package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/service"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

// RecordHandler wires grade record endpoints.
type RecordHandler struct {
	service         service.RecordService
	defaultPageSize int
	maxPageSize     int
	logger          zerolog.Logger
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(service service.RecordService, defaultPageSize, maxPageSize int, logger zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		service:         service,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.With().Str("component", "record_handler").Logger(),
	}
}

// Register attaches record routes to the router group. Mutating routes carry
// role guards supplied by the router.
func (h *RecordHandler) Register(router fiber.Router, canEdit fiber.Handler, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Post("", canEdit, h.create)
	router.Post("/bulk-upload", canEdit, h.bulkUpload)
	router.Get("/course/:courseCode", h.getByCourse)
	router.Get("/student/:studentId", h.getByStudent)
	router.Delete("/all", adminOnly, h.deleteAll)
	router.Get("/:id", h.get)
	router.Put("/:id", canEdit, h.update)
	router.Delete("/:id", adminOnly, h.delete)
}

func (h *RecordHandler) list(c *fiber.Ctx) error {
	page, limit, err := pageParams(c, h.defaultPageSize, h.maxPageSize)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination parameters")
	}

	year, err := parseQueryInt(c, "yearCompleted")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid yearCompleted")
	}

	semester := c.Query("semester")
	if semester != "" && semester != models.SemesterFirst && semester != models.SemesterSecond && semester != models.SemesterThird {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid semester")
	}

	req := dto.RecordListRequest{
		Page:          page,
		Limit:         limit,
		CourseCode:    c.Query("courseCode"),
		StudentID:     c.Query("studentId"),
		StudentName:   c.Query("studentName"),
		Instructor:    c.Query("instructor"),
		Grade:         c.Query("grade"),
		YearCompleted: year,
		Semester:      semester,
		SortField:     c.Query("sortField"),
		SortDirection: c.Query("sortDirection"),
	}

	records, pagination, err := h.service.List(c.Context(), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list records")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list records")
	}

	return utils.SendPage(c, "records retrieved", records, pagination)
}

func (h *RecordHandler) getByCourse(c *fiber.Ctx) error {
	records, err := h.service.GetByCourse(c.Context(), c.Params("courseCode"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch course records")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch course records")
	}

	return utils.SendSuccess(c, "records retrieved", records)
}

func (h *RecordHandler) getByStudent(c *fiber.Ctx) error {
	records, err := h.service.GetByStudent(c.Context(), c.Params("studentId"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch student records")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch student records")
	}

	return utils.SendSuccess(c, "records retrieved", records)
}

func (h *RecordHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	record, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "record not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch record")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch record")
	}

	return utils.SendSuccess(c, "record retrieved", record)
}

func (h *RecordHandler) create(c *fiber.Ctx) error {
	var payload dto.RecordCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendValidationErrors(c, utils.ValidationMessages(err))
		case errors.Is(err, service.ErrDuplicateRecord):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create record")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create record")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "record created", record)
}

func (h *RecordHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.RecordUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Update(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "record not found")
		case errors.Is(err, service.ErrDuplicateRecord):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case isValidationError(err):
			return utils.SendValidationErrors(c, utils.ValidationMessages(err))
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to update record")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update record")
		}
	}

	return utils.SendSuccess(c, "record updated", record)
}

func (h *RecordHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.Context(), id, actorFromContext(c)); err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "record not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete record")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete record")
	}

	return utils.SendSuccess(c, "record deleted", fiber.Map{"id": id})
}

func (h *RecordHandler) bulkUpload(c *fiber.Ctx) error {
	var payload dto.BulkUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.BulkUpsert(c.Context(), payload, actorFromContext(c))
	if err != nil {
		if isValidationError(err) {
			return utils.SendValidationErrors(c, utils.ValidationMessages(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("bulk upload failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "bulk upload failed")
	}

	return utils.SendSuccess(c, "bulk upload processed", response)
}

func (h *RecordHandler) deleteAll(c *fiber.Ctx) error {
	response, err := h.service.DeleteAll(c.Context(), actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete all records")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete all records")
	}

	return utils.SendSuccess(c, "all records deleted", response)
}
