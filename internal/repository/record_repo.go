package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jalh2/ulpdsrd-backend/internal/models"
)

// RecordFilter narrows grade record list queries. Text fields match
// case-insensitive substrings; the remaining fields match exactly.
type RecordFilter struct {
	CourseCode    string
	StudentID     string
	StudentName   string
	Instructor    string
	Grade         string
	YearCompleted int
	Semester      string
	SortField     string
	SortDirection string
	Page          int
	Limit         int
}

// Columns exposed for caller-supplied sorting.
var recordSortColumns = map[string]string{
	"studentId":     "student_id",
	"studentName":   "student_name",
	"courseCode":    "course_code",
	"grade":         "grade",
	"numericGrade":  "numeric_grade",
	"instructor":    "instructor",
	"yearCompleted": "year_completed",
	"semester":      "semester",
	"createdAt":     "created_at",
}

// RecordRepository exposes persistence helpers for grade records.
type RecordRepository interface {
	List(ctx context.Context, filter RecordFilter) ([]models.GradeRecord, int64, error)
	ListByCourse(ctx context.Context, courseCode string) ([]models.GradeRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeRecord, error)
	GetByID(ctx context.Context, id uint) (models.GradeRecord, error)
	GetByStudentCourse(ctx context.Context, studentID, courseCode string) (models.GradeRecord, error)
	ExistsOther(ctx context.Context, excludeID uint, studentID, courseCode string) (bool, error)
	Create(ctx context.Context, record *models.GradeRecord) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.GradeRecord, error)
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)
}

type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository constructs the grade record repository.
func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) List(ctx context.Context, filter RecordFilter) ([]models.GradeRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.GradeRecord{})

	if filter.CourseCode != "" {
		query = query.Where(`LOWER(course_code) LIKE ? ESCAPE '\'`, substringPattern(filter.CourseCode))
	}
	if filter.StudentID != "" {
		query = query.Where(`LOWER(student_id) LIKE ? ESCAPE '\'`, substringPattern(filter.StudentID))
	}
	if filter.StudentName != "" {
		query = query.Where(`LOWER(student_name) LIKE ? ESCAPE '\'`, substringPattern(filter.StudentName))
	}
	if filter.Instructor != "" {
		query = query.Where(`LOWER(instructor) LIKE ? ESCAPE '\'`, substringPattern(filter.Instructor))
	}
	if filter.Grade != "" {
		query = query.Where("grade = ?", filter.Grade)
	}
	if filter.YearCompleted > 0 {
		query = query.Where("year_completed = ?", filter.YearCompleted)
	}
	if filter.Semester != "" {
		query = query.Where("semester = ?", filter.Semester)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(recordSortClause(filter.SortField, filter.SortDirection))

	if filter.Limit > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.Limit).Offset((page - 1) * filter.Limit)
	}

	var records []models.GradeRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func recordSortClause(field, direction string) string {
	column, ok := recordSortColumns[field]
	if !ok {
		return "year_completed DESC, semester ASC"
	}

	dir := "ASC"
	if strings.EqualFold(direction, "desc") {
		dir = "DESC"
	}

	return fmt.Sprintf("%s %s", column, dir)
}

func (r *recordRepository) ListByCourse(ctx context.Context, courseCode string) ([]models.GradeRecord, error) {
	var records []models.GradeRecord
	err := r.db.WithContext(ctx).
		Where("course_code = ?", courseCode).
		Order("year_completed DESC, semester ASC").
		Find(&records).Error
	return records, err
}

func (r *recordRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradeRecord, error) {
	var records []models.GradeRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("year_completed DESC, semester ASC").
		Find(&records).Error
	return records, err
}

func (r *recordRepository) GetByID(ctx context.Context, id uint) (models.GradeRecord, error) {
	var record models.GradeRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.GradeRecord{}, err
	}
	return record, nil
}

func (r *recordRepository) GetByStudentCourse(ctx context.Context, studentID, courseCode string) (models.GradeRecord, error) {
	var record models.GradeRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_code = ?", studentID, courseCode).
		First(&record).Error
	if err != nil {
		return models.GradeRecord{}, err
	}
	return record, nil
}

func (r *recordRepository) ExistsOther(ctx context.Context, excludeID uint, studentID, courseCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GradeRecord{}).
		Where("student_id = ? AND course_code = ?", studentID, courseCode).
		Where("id <> ?", excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *recordRepository) Create(ctx context.Context, record *models.GradeRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *recordRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.GradeRecord, error) {
	tx := r.db.WithContext(ctx).Model(&models.GradeRecord{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return models.GradeRecord{}, tx.Error
	}
	if tx.RowsAffected == 0 {
		return models.GradeRecord{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *recordRepository) Delete(ctx context.Context, id uint) error {
	tx := r.db.WithContext(ctx).Delete(&models.GradeRecord{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recordRepository) DeleteAll(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.GradeRecord{})
	return tx.RowsAffected, tx.Error
}
