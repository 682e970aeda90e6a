package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/repository"
	"github.com/jalh2/ulpdsrd-backend/pkg/password"
)

// Sentinel errors surfaced by authentication operations.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("account is deactivated")
)

// AuthService establishes caller identity for a request lifetime. Roles are
// bound exclusively to verified credentials; nothing is trusted from
// request-supplied fields.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest, ip string) (dto.UserResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest, ip string) (dto.LoginResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
	Logout(ctx context.Context, actor Actor)
}

type authService struct {
	users     repository.UserRepository
	userSvc   UserService
	activity  ActivityRecorder
	validator *validator.Validate
	jwtSecret string
	jwtExpiry time.Duration
	logger    zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, userSvc UserService, activity ActivityRecorder, validate *validator.Validate, jwtSecret string, jwtExpiry time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		userSvc:   userSvc,
		activity:  activity,
		validator: validate,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a self-service account. Self-registered users always start
// with the instructor role.
func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest, ip string) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	return s.userSvc.Create(ctx, dto.UserCreateRequest{
		Username: payload.Username,
		Password: payload.Password,
		UserType: models.RoleInstructor,
		Name:     payload.Name,
		Email:    payload.Email,
	}, Actor{Username: payload.Username, IP: ip})
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest, ip string) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if !password.Verify(payload.Password, user.PasswordSalt, user.PasswordHash) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	if !user.Active {
		return dto.LoginResponse{}, ErrUserInactive
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to update last login")
	}
	user.LastLogin = &now

	token, err := s.issueToken(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.activity.Record(ActivityEntry{
		UserID:    &user.ID,
		Username:  user.Username,
		UserType:  user.UserType,
		Action:    models.ActionLogin,
		IPAddress: ip,
	})

	return dto.LoginResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

// Logout records the audit entry; tokens are stateless so ending identity is
// the client discarding its token.
func (s *authService) Logout(ctx context.Context, actor Actor) {
	s.activity.Record(ActivityEntry{
		UserID:    actor.Ref(),
		Username:  actor.Username,
		UserType:  actor.Role,
		Action:    models.ActionLogout,
		IPAddress: actor.IP,
	})
}

func (s *authService) issueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.UserType,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.jwtExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
