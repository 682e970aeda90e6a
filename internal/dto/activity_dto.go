package dto

import (
	"time"

	"github.com/jalh2/ulpdsrd-backend/internal/models"
)

// ActivityListRequest defines filters for retrieving audit log entries.
// StartDate and EndDate bound the timestamp range inclusively; either or
// both may be supplied.
type ActivityListRequest struct {
	Page      int
	Limit     int
	UserID    uint
	Username  string
	UserType  string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
}

// ActivityCreateRequest captures manual audit entry payloads.
type ActivityCreateRequest struct {
	Action  string                 `json:"action" validate:"required,min=2,max=64"`
	Details map[string]interface{} `json:"details" validate:"omitempty"`
}

// ActivityResponse serializes an audit log entry.
type ActivityResponse struct {
	ID        uint                   `json:"id"`
	UserID    *uint                  `json:"user_id"`
	Username  string                 `json:"username"`
	UserType  string                 `json:"user_type"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
	IPAddress string                 `json:"ip_address"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewActivityResponse converts an audit log model into a DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	details := map[string]interface{}{}
	if entry.Details != nil {
		details = map[string]interface{}(entry.Details)
	}

	return ActivityResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Username:  entry.Username,
		UserType:  entry.UserType,
		Action:    entry.Action,
		Details:   details,
		IPAddress: entry.IPAddress,
		Timestamp: entry.CreatedAt,
	}
}

// ActionCount pairs an audit action with its number of occurrences.
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// UserTypeCount pairs a role with its number of audit entries.
type UserTypeCount struct {
	UserType string `json:"user_type"`
	Count    int64  `json:"count"`
}

// DailyCount reports audit entries per calendar day.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// ActivityStatsResponse aggregates audit trail statistics.
type ActivityStatsResponse struct {
	Total       int64           `json:"total"`
	ByAction    []ActionCount   `json:"by_action"`
	ByUserType  []UserTypeCount `json:"by_user_type"`
	Last7Days   []DailyCount    `json:"last_7_days"`
	GeneratedAt time.Time       `json:"generated_at"`
	CacheHit    bool            `json:"cache_hit"`
}

// CleanupResponse reports the number of audit entries removed by retention.
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
	Days    int   `json:"days"`
}
