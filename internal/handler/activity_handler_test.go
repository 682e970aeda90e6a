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

type mockActivityService struct {
	listResp    []dto.ActivityResponse
	listMeta    utils.PaginationMeta
	lastFilter  dto.ActivityListRequest
	statsResp   dto.ActivityStatsResponse
	cleanupResp dto.CleanupResponse
	cleanupDays int

	recorded []service.ActivityEntry
}

func (m *mockActivityService) Record(entry service.ActivityEntry) {
	m.recorded = append(m.recorded, entry)
}

func (m *mockActivityService) Start(_ context.Context) {}

func (m *mockActivityService) Stop() {}

func (m *mockActivityService) Create(_ context.Context, actor service.Actor, payload dto.ActivityCreateRequest) error {
	m.recorded = append(m.recorded, service.ActivityEntry{
		UserID:   actor.Ref(),
		Username: actor.Username,
		Action:   payload.Action,
		Details:  payload.Details,
	})
	return nil
}

func (m *mockActivityService) List(_ context.Context, req dto.ActivityListRequest) ([]dto.ActivityResponse, utils.PaginationMeta, error) {
	m.lastFilter = req
	return m.listResp, m.listMeta, nil
}

func (m *mockActivityService) Stats(_ context.Context) (dto.ActivityStatsResponse, error) {
	return m.statsResp, nil
}

func (m *mockActivityService) Cleanup(_ context.Context, days int) (dto.CleanupResponse, error) {
	m.cleanupDays = days
	return m.cleanupResp, nil
}

func activityApp(svc service.ActivityService, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/logs", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(7))
		c.Locals(middleware.LocalUsername, "jdoe")
		c.Locals(middleware.LocalUserRole, role)
		return c.Next()
	})
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	handler.NewActivityHandler(svc, 10, 100, zerolog.New(io.Discard)).Register(group, adminOnly)
	return app
}

func TestActivityHandlerListParsesFilters(t *testing.T) {
	svc := &mockActivityService{listMeta: utils.PaginationMeta{Page: 1, Limit: 10}}
	app := activityApp(svc, models.RoleInstructor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?user=4&username=jdoe&action=LOGIN&startDate=2026-08-01&endDate=2026-08-30", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, uint(4), svc.lastFilter.UserID)
	require.Equal(t, "jdoe", svc.lastFilter.Username)
	require.Equal(t, "LOGIN", svc.lastFilter.Action)
	require.NotNil(t, svc.lastFilter.StartDate)
	require.NotNil(t, svc.lastFilter.EndDate)
}

func TestActivityHandlerListRejectsBadDate(t *testing.T) {
	app := activityApp(&mockActivityService{}, models.RoleInstructor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?startDate=yesterday", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestActivityHandlerCreateRecordsEntry(t *testing.T) {
	svc := &mockActivityService{}
	app := activityApp(svc, models.RoleInstructor)

	body, err := json.Marshal(dto.ActivityCreateRequest{Action: "PAGE_VIEWED", Details: map[string]interface{}{"page": "records"}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Len(t, svc.recorded, 1)
	require.Equal(t, "PAGE_VIEWED", svc.recorded[0].Action)
	require.Equal(t, "jdoe", svc.recorded[0].Username)
}

func TestActivityHandlerStats(t *testing.T) {
	svc := &mockActivityService{statsResp: dto.ActivityStatsResponse{Total: 42}}
	app := activityApp(svc, models.RoleInstructor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/stats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestActivityHandlerCleanupRequiresAdmin(t *testing.T) {
	svc := &mockActivityService{cleanupResp: dto.CleanupResponse{Deleted: 5, Days: 60}}

	app := activityApp(svc, models.RoleChairman)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/logs/cleanup?days=60", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = activityApp(svc, models.RoleAdmin)
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/logs/cleanup?days=60", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 60, svc.cleanupDays)
}
