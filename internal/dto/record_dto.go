package dto

import (
	"time"

	"github.com/jalh2/ulpdsrd-backend/internal/models"
)

// RecordListRequest defines filters for listing grade records. Text filters
// match case-insensitive substrings; grade, year and semester match exactly.
type RecordListRequest struct {
	Page          int
	Limit         int
	CourseCode    string
	StudentID     string
	StudentName   string
	Instructor    string
	Grade         string
	YearCompleted int
	Semester      string
	SortField     string
	SortDirection string
}

// RecordCreateRequest captures the payload for creating a grade record.
// Omitted optional fields receive server-side defaults.
type RecordCreateRequest struct {
	StudentID     string   `json:"student_id" validate:"required,min=1"`
	StudentName   string   `json:"student_name" validate:"required,min=1"`
	CourseCode    string   `json:"course_code" validate:"required,min=1"`
	CourseName    string   `json:"course_name" validate:"omitempty,max=255"`
	Grade         string   `json:"grade" validate:"required,min=1,max=4"`
	NumericGrade  *float64 `json:"numeric_grade" validate:"omitempty,gte=0,lte=100"`
	Instructor    string   `json:"instructor" validate:"omitempty,max=255"`
	YearCompleted *int     `json:"year_completed" validate:"omitempty,gte=1950,ltecurrentyear"`
	Semester      string   `json:"semester" validate:"omitempty,oneof=First Second Third"`
	Session       string   `json:"session" validate:"omitempty,max=64"`
}

// RecordUpdateRequest captures partial update payloads. Pointer fields
// distinguish "omitted" from "set to zero/empty".
type RecordUpdateRequest struct {
	StudentID     *string  `json:"student_id" validate:"omitempty,min=1"`
	StudentName   *string  `json:"student_name" validate:"omitempty,min=1"`
	CourseCode    *string  `json:"course_code" validate:"omitempty,min=1"`
	CourseName    *string  `json:"course_name" validate:"omitempty,max=255"`
	Grade         *string  `json:"grade" validate:"omitempty,min=1,max=4"`
	NumericGrade  *float64 `json:"numeric_grade" validate:"omitempty,gte=0,lte=100"`
	Instructor    *string  `json:"instructor" validate:"omitempty,max=255"`
	YearCompleted *int     `json:"year_completed" validate:"omitempty,gte=1950,ltecurrentyear"`
	Semester      *string  `json:"semester" validate:"omitempty,oneof=First Second Third"`
	Session       *string  `json:"session" validate:"omitempty,max=64"`
}

// RecordResponse serializes a grade record for API clients.
type RecordResponse struct {
	ID            uint      `json:"id"`
	StudentID     string    `json:"student_id"`
	StudentName   string    `json:"student_name"`
	CourseCode    string    `json:"course_code"`
	CourseName    string    `json:"course_name"`
	Grade         string    `json:"grade"`
	NumericGrade  float64   `json:"numeric_grade"`
	Instructor    string    `json:"instructor"`
	YearCompleted int       `json:"year_completed"`
	Semester      string    `json:"semester"`
	Session       string    `json:"session"`
	UpdatedByID   *uint     `json:"updated_by_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewRecordResponse converts a grade record model into a DTO.
func NewRecordResponse(record models.GradeRecord) RecordResponse {
	return RecordResponse{
		ID:            record.ID,
		StudentID:     record.StudentID,
		StudentName:   record.StudentName,
		CourseCode:    record.CourseCode,
		CourseName:    record.CourseName,
		Grade:         record.Grade,
		NumericGrade:  record.NumericGrade,
		Instructor:    record.Instructor,
		YearCompleted: record.YearCompleted,
		Semester:      record.Semester,
		Session:       record.Session,
		UpdatedByID:   record.UpdatedByID,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

// Bulk upsert item outcomes.
const (
	BulkOutcomeCreated = "created"
	BulkOutcomeUpdated = "updated"
	BulkOutcomeError   = "error"
)

// BulkUpsertRequest wraps the items submitted for bulk upload.
type BulkUpsertRequest struct {
	Items []RecordCreateRequest `json:"items" validate:"required,min=1"`
}

// BulkItemResult reports the outcome of a single bulk upsert item.
type BulkItemResult struct {
	Index      int    `json:"index"`
	StudentID  string `json:"student_id"`
	CourseCode string `json:"course_code"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

// BulkUpsertResponse aggregates per-item outcomes of a bulk upload.
type BulkUpsertResponse struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Results []BulkItemResult `json:"results"`
}

// DeleteAllResponse reports the number of records removed by a full wipe.
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}
