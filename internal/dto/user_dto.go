package dto

import (
	"time"

	"github.com/jalh2/ulpdsrd-backend/internal/models"
)

// UserListRequest defines filters for listing users.
type UserListRequest struct {
	Page     int
	Limit    int
	Search   string
	UserType string
}

// UserCreateRequest captures the payload for creating a user account.
type UserCreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	UserType string `json:"user_type" validate:"omitempty,oneof=instructor chairman admin"`
	Name     string `json:"name" validate:"omitempty,max=255"`
	Email    string `json:"email" validate:"required,email"`
}

// UserUpdateRequest captures partial update payloads for user profiles.
// Password changes go through the dedicated password endpoints.
type UserUpdateRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	UserType *string `json:"user_type" validate:"omitempty,oneof=instructor chairman admin"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Active   *bool   `json:"active"`
}

// ChangePasswordRequest carries a new password for an account.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// ResetPasswordResponse returns the generated temporary password. It is
// surfaced exactly once and never retrievable again.
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// UserResponse serializes a user account without credential material.
type UserResponse struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	UserType  string     `json:"user_type"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Active    bool       `json:"active"`
	CanEdit   bool       `json:"can_edit"`
	IsAdmin   bool       `json:"is_admin"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewUserResponse converts a user model into a DTO, stripping credentials.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		UserType:  user.UserType,
		Name:      user.Name,
		Email:     user.Email,
		Active:    user.Active,
		CanEdit:   user.CanEdit(),
		IsAdmin:   user.IsAdmin(),
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
