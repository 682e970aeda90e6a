package models

import "time"

// Semester values accepted on grade records.
const (
	SemesterFirst  = "First"
	SemesterSecond = "Second"
	SemesterThird  = "Third"
)

// Defaults applied when a record is created without the optional fields.
const (
	DefaultNumericGrade = 70
	DefaultInstructor   = "Unknown"
	MinYearCompleted    = 1950
)

// GradeRecord is a single student/course grade entry. At most one record may
// exist per (student_id, course_code) pair; the composite unique index is the
// authoritative enforcement point under concurrent writes.
type GradeRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentID     string    `gorm:"size:64;not null;uniqueIndex:idx_student_course" json:"student_id"`
	StudentName   string    `gorm:"size:255;not null" json:"student_name"`
	CourseCode    string    `gorm:"size:64;not null;uniqueIndex:idx_student_course" json:"course_code"`
	CourseName    string    `gorm:"size:255" json:"course_name"`
	Grade         string    `gorm:"size:8;not null" json:"grade"`
	NumericGrade  float64   `gorm:"not null;default:70" json:"numeric_grade"`
	Instructor    string    `gorm:"size:255;not null;default:'Unknown'" json:"instructor"`
	YearCompleted int       `gorm:"not null" json:"year_completed"`
	Semester      string    `gorm:"size:16;not null;default:'First'" json:"semester"`
	Session       string    `gorm:"size:64" json:"session"`
	UpdatedByID   *uint     `json:"updated_by_id"`
	UpdatedBy     *User     `gorm:"foreignKey:UpdatedByID" json:"updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
