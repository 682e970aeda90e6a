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
	"github.com/jalh2/ulpdsrd-backend/internal/service"
)

type mockAuthService struct {
	registerResp dto.UserResponse
	registerErr  error
	loginResp    dto.LoginResponse
	loginErr     error
	profileResp  dto.UserResponse
	profileErr   error

	loggedOut []service.Actor
}

func (m *mockAuthService) Register(_ context.Context, _ dto.RegisterRequest, _ string) (dto.UserResponse, error) {
	return m.registerResp, m.registerErr
}

func (m *mockAuthService) Login(_ context.Context, _ dto.LoginRequest, _ string) (dto.LoginResponse, error) {
	return m.loginResp, m.loginErr
}

func (m *mockAuthService) Profile(_ context.Context, _ uint) (dto.UserResponse, error) {
	return m.profileResp, m.profileErr
}

func (m *mockAuthService) Logout(_ context.Context, actor service.Actor) {
	m.loggedOut = append(m.loggedOut, actor)
}

func authApp(svc service.AuthService, authenticated bool) *fiber.App {
	app := fiber.New()
	h := handler.NewAuthHandler(svc, zerolog.New(io.Discard))

	public := app.Group("/api/v1/auth")
	h.RegisterPublic(public)

	protected := app.Group("/api/v1/auth", func(c *fiber.Ctx) error {
		if authenticated {
			c.Locals(middleware.LocalUserID, uint(7))
			c.Locals(middleware.LocalUsername, "jdoe")
			c.Locals(middleware.LocalUserRole, "instructor")
		}
		return c.Next()
	})
	h.RegisterProtected(protected)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthHandlerRegisterCreated(t *testing.T) {
	svc := &mockAuthService{registerResp: dto.UserResponse{ID: 1, Username: "jdoe", UserType: "instructor"}}
	app := authApp(svc, false)

	resp := postJSON(t, app, "/api/v1/auth/register", dto.RegisterRequest{Username: "jdoe", Password: "secret123", Email: "jane@ul.edu"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestAuthHandlerRegisterDuplicate(t *testing.T) {
	svc := &mockAuthService{registerErr: service.ErrDuplicateUsername}
	app := authApp(svc, false)

	resp := postJSON(t, app, "/api/v1/auth/register", dto.RegisterRequest{Username: "jdoe", Password: "secret123", Email: "jane@ul.edu"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	svc := &mockAuthService{loginErr: service.ErrInvalidCredentials}
	app := authApp(svc, false)

	resp := postJSON(t, app, "/api/v1/auth/login", dto.LoginRequest{Username: "jdoe", Password: "wrong"})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandlerLoginInactiveAccount(t *testing.T) {
	svc := &mockAuthService{loginErr: service.ErrUserInactive}
	app := authApp(svc, false)

	resp := postJSON(t, app, "/api/v1/auth/login", dto.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	svc := &mockAuthService{loginResp: dto.LoginResponse{Token: "token", User: dto.UserResponse{ID: 1}}}
	app := authApp(svc, false)

	resp := postJSON(t, app, "/api/v1/auth/login", dto.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthHandlerProfileRequiresIdentity(t *testing.T) {
	svc := &mockAuthService{profileResp: dto.UserResponse{ID: 7, Username: "jdoe"}}

	app := authApp(svc, false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app = authApp(svc, true)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthHandlerLogoutRecordsActor(t *testing.T) {
	svc := &mockAuthService{}
	app := authApp(svc, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, svc.loggedOut, 1)
	require.Equal(t, "jdoe", svc.loggedOut[0].Username)
}
