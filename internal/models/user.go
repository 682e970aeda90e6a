package models

import "time"

// User roles recognised by the authorization gate.
const (
	RoleInstructor = "instructor"
	RoleChairman   = "chairman"
	RoleAdmin      = "admin"
)

// User represents a department account able to authenticate against the API.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"size:128;not null" json:"-"`
	PasswordSalt string     `gorm:"size:64;not null" json:"-"`
	UserType     string     `gorm:"size:32;not null;default:'instructor'" json:"user_type"`
	Name         string     `gorm:"size:255" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CanEdit reports whether the user may create or modify grade records.
func (u User) CanEdit() bool {
	return u.UserType == RoleChairman || u.UserType == RoleAdmin
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.UserType == RoleAdmin
}
