package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/handler"
	"github.com/jalh2/ulpdsrd-backend/internal/middleware"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/service"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

type mockRecordService struct {
	listResp      []dto.RecordResponse
	listMeta      utils.PaginationMeta
	getResp       dto.RecordResponse
	getErr        error
	createResp    dto.RecordResponse
	createErr     error
	updateResp    dto.RecordResponse
	updateErr     error
	deleteErr     error
	bulkResp      dto.BulkUpsertResponse
	deleteAllResp dto.DeleteAllResponse

	lastActor      service.Actor
	deletedID      uint
	deleteAllCalls int
}

func (m *mockRecordService) List(_ context.Context, _ dto.RecordListRequest) ([]dto.RecordResponse, utils.PaginationMeta, error) {
	return m.listResp, m.listMeta, nil
}

func (m *mockRecordService) GetByCourse(_ context.Context, _ string) ([]dto.RecordResponse, error) {
	return m.listResp, nil
}

func (m *mockRecordService) GetByStudent(_ context.Context, _ string) ([]dto.RecordResponse, error) {
	return m.listResp, nil
}

func (m *mockRecordService) GetByID(_ context.Context, _ uint) (dto.RecordResponse, error) {
	return m.getResp, m.getErr
}

func (m *mockRecordService) Create(_ context.Context, _ dto.RecordCreateRequest, actor service.Actor) (dto.RecordResponse, error) {
	m.lastActor = actor
	return m.createResp, m.createErr
}

func (m *mockRecordService) Update(_ context.Context, _ uint, _ dto.RecordUpdateRequest, actor service.Actor) (dto.RecordResponse, error) {
	m.lastActor = actor
	return m.updateResp, m.updateErr
}

func (m *mockRecordService) Delete(_ context.Context, id uint, actor service.Actor) error {
	m.lastActor = actor
	m.deletedID = id
	return m.deleteErr
}

func (m *mockRecordService) BulkUpsert(_ context.Context, _ dto.BulkUpsertRequest, actor service.Actor) (dto.BulkUpsertResponse, error) {
	m.lastActor = actor
	return m.bulkResp, nil
}

func (m *mockRecordService) DeleteAll(_ context.Context, actor service.Actor) (dto.DeleteAllResponse, error) {
	m.lastActor = actor
	m.deleteAllCalls++
	return m.deleteAllResp, nil
}

func recordApp(svc service.RecordService, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/students", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(7))
		c.Locals(middleware.LocalUsername, "tester")
		c.Locals(middleware.LocalUserRole, role)
		return c.Next()
	})

	canEdit := middleware.RequireRole(models.RoleChairman, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	handler.NewRecordHandler(svc, 10, 100, zerolog.New(io.Discard)).Register(group, canEdit, adminOnly)
	return app
}

func createPayload(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(dto.RecordCreateRequest{
		StudentID:   "UL-1001",
		StudentName: "Alice Johnson",
		CourseCode:  "CS101",
		Grade:       "A",
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestRecordHandlerListReturnsPage(t *testing.T) {
	svc := &mockRecordService{
		listResp: []dto.RecordResponse{{ID: 1, StudentID: "UL-1001"}},
		listMeta: utils.PaginationMeta{Page: 1, Limit: 10, TotalItems: 1, TotalPages: 1},
	}
	app := recordApp(svc, models.RoleInstructor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students?page=1&limit=10", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NotNil(t, envelope.Pagination)
	require.Equal(t, int64(1), envelope.Pagination.TotalItems)
}

func TestRecordHandlerListRejectsInvalidSemester(t *testing.T) {
	app := recordApp(&mockRecordService{}, models.RoleInstructor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students?semester=Summer", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRecordHandlerCreateRequiresEditorRole(t *testing.T) {
	svc := &mockRecordService{createResp: dto.RecordResponse{ID: 1}}

	app := recordApp(svc, models.RoleInstructor)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students", createPayload(t))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = recordApp(svc, models.RoleChairman)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/students", createPayload(t))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "tester", svc.lastActor.Username)
	require.Equal(t, uint(7), svc.lastActor.ID)
}

func TestRecordHandlerCreateDuplicate(t *testing.T) {
	svc := &mockRecordService{createErr: service.ErrDuplicateRecord}
	app := recordApp(svc, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students", createPayload(t))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRecordHandlerGetNotFound(t *testing.T) {
	svc := &mockRecordService{getErr: service.ErrRecordNotFound}
	app := recordApp(svc, models.RoleInstructor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/99", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRecordHandlerDeleteRequiresAdminRole(t *testing.T) {
	svc := &mockRecordService{}

	app := recordApp(svc, models.RoleChairman)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/students/3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = recordApp(svc, models.RoleAdmin)
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/students/3", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.deletedID)
}

func TestRecordHandlerDeleteAllRoute(t *testing.T) {
	svc := &mockRecordService{deleteAllResp: dto.DeleteAllResponse{Deleted: 12}}
	app := recordApp(svc, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/students/all", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.deleteAllCalls)
	require.Zero(t, svc.deletedID, "the wipe route must not fall through to delete-by-id")
}

func TestRecordHandlerBulkUploadRequiresEditorRole(t *testing.T) {
	svc := &mockRecordService{bulkResp: dto.BulkUpsertResponse{Created: 1}}

	body, err := json.Marshal(dto.BulkUpsertRequest{Items: []dto.RecordCreateRequest{{StudentID: "UL-1001", StudentName: "Alice", CourseCode: "CS101", Grade: "A"}}})
	require.NoError(t, err)

	app := recordApp(svc, models.RoleInstructor)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/bulk-upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = recordApp(svc, models.RoleChairman)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/students/bulk-upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
