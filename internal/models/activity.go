package models

import (
	"time"

	"gorm.io/datatypes"
)

// Common audit actions. Services may record additional free-form actions.
const (
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
)

// ActivityLog is an append-only audit trail entry. Username and UserType are
// snapshots taken at the time of the action; UserID is a non-owning
// back-reference and is left nil when the supplied reference is invalid.
type ActivityLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    *uint             `gorm:"index" json:"user_id"`
	User      *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Username  string            `gorm:"size:50" json:"username"`
	UserType  string            `gorm:"size:32" json:"user_type"`
	Action    string            `gorm:"size:64;not null;index" json:"action"`
	Details   datatypes.JSONMap `gorm:"type:json" json:"details"`
	IPAddress string            `gorm:"size:45" json:"ip_address"`
	CreatedAt time.Time         `gorm:"index" json:"timestamp"`
}
