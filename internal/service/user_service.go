package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/repository"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
	"github.com/jalh2/ulpdsrd-backend/pkg/password"
)

// Sentinel errors surfaced by user operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username is already taken")
	ErrDuplicateEmail    = errors.New("email is already registered")
)

// UserService orchestrates user account management.
type UserService interface {
	List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, utils.PaginationMeta, error)
	GetByID(ctx context.Context, id uint) (dto.UserResponse, error)
	Create(ctx context.Context, payload dto.UserCreateRequest, actor Actor) (dto.UserResponse, error)
	Update(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor Actor) (dto.UserResponse, error)
	ChangePassword(ctx context.Context, id uint, payload dto.ChangePasswordRequest, actor Actor) error
	ResetPassword(ctx context.Context, id uint, actor Actor) (dto.ResetPasswordResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo repository.UserRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, utils.PaginationMeta, error) {
	filter := repository.UserFilter{
		Search:   strings.TrimSpace(req.Search),
		UserType: strings.TrimSpace(req.UserType),
		Page:     req.Page,
		Limit:    req.Limit,
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}

	return responses, pageMeta(req.Page, req.Limit, total), nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) Create(ctx context.Context, payload dto.UserCreateRequest, actor Actor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	username := strings.TrimSpace(payload.Username)
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	if err := s.checkAvailability(ctx, username, email, 0); err != nil {
		return dto.UserResponse{}, err
	}

	salt, hash, err := password.Hash(payload.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}

	userType := strings.TrimSpace(payload.UserType)
	if userType == "" {
		userType = models.RoleInstructor
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		UserType:     userType,
		Name:         strings.TrimSpace(payload.Name),
		Email:        email,
		Active:       true,
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		if repository.IsDuplicateKey(err) {
			return dto.UserResponse{}, classifyUserConflict(err)
		}
		return dto.UserResponse{}, err
	}

	s.audit(actor, "USER_CREATED", user)
	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor Actor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	updates := map[string]interface{}{}
	username := ""
	email := ""

	if payload.Username != nil {
		username = strings.TrimSpace(*payload.Username)
		updates["username"] = username
	}
	if payload.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*payload.Email))
		updates["email"] = email
	}
	if payload.UserType != nil {
		updates["user_type"] = *payload.UserType
	}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Active != nil {
		updates["active"] = *payload.Active
	}

	if len(updates) == 0 {
		return s.GetByID(ctx, id)
	}

	if username != "" || email != "" {
		if err := s.checkAvailability(ctx, username, email, id); err != nil {
			return dto.UserResponse{}, err
		}
	}

	user, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.UserResponse{}, ErrUserNotFound
		case repository.IsDuplicateKey(err):
			return dto.UserResponse{}, classifyUserConflict(err)
		default:
			return dto.UserResponse{}, err
		}
	}

	s.audit(actor, "USER_UPDATED", user)
	return dto.NewUserResponse(user), nil
}

func (s *userService) ChangePassword(ctx context.Context, id uint, payload dto.ChangePasswordRequest, actor Actor) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	salt, hash, err := password.Hash(payload.Password)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateCredentials(ctx, id, salt, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err == nil {
		s.audit(actor, "PASSWORD_CHANGED", user)
	}

	return nil
}

// ResetPassword generates a temporary password, stores its digest and returns
// the plaintext exactly once. It is never retrievable afterwards.
func (s *userService) ResetPassword(ctx context.Context, id uint, actor Actor) (dto.ResetPasswordResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResetPasswordResponse{}, ErrUserNotFound
		}
		return dto.ResetPasswordResponse{}, err
	}

	temp, err := password.GenerateTemp()
	if err != nil {
		return dto.ResetPasswordResponse{}, err
	}

	salt, hash, err := password.Hash(temp)
	if err != nil {
		return dto.ResetPasswordResponse{}, err
	}

	if err := s.repo.UpdateCredentials(ctx, id, salt, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResetPasswordResponse{}, ErrUserNotFound
		}
		return dto.ResetPasswordResponse{}, err
	}

	s.audit(actor, "PASSWORD_RESET", user)
	return dto.ResetPasswordResponse{TempPassword: temp}, nil
}

func (s *userService) Delete(ctx context.Context, id uint, actor Actor) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// Audit entries keep their snapshots; deleting a user never cascades into
	// the activity trail.
	s.audit(actor, "USER_DELETED", user)
	return nil
}

func (s *userService) checkAvailability(ctx context.Context, username, email string, excludeID uint) error {
	if username != "" {
		count, err := s.repo.CountByUsername(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
	}

	if email != "" {
		count, err := s.repo.CountByEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}
	}

	return nil
}

func (s *userService) audit(actor Actor, action string, subject models.User) {
	s.activity.Record(ActivityEntry{
		UserID:   actor.Ref(),
		Username: actor.Username,
		UserType: actor.Role,
		Action:   action,
		Details: map[string]interface{}{
			"target_user_id":  subject.ID,
			"target_username": subject.Username,
		},
		IPAddress: actor.IP,
	})
}

func classifyUserConflict(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}
