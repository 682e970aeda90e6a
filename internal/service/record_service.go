package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/repository"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

// Sentinel errors surfaced by record operations.
var (
	ErrRecordNotFound  = errors.New("grade record not found")
	ErrDuplicateRecord = errors.New("a record for this student and course already exists")
)

// RecordService orchestrates grade record use cases.
type RecordService interface {
	List(ctx context.Context, req dto.RecordListRequest) ([]dto.RecordResponse, utils.PaginationMeta, error)
	GetByCourse(ctx context.Context, courseCode string) ([]dto.RecordResponse, error)
	GetByStudent(ctx context.Context, studentID string) ([]dto.RecordResponse, error)
	GetByID(ctx context.Context, id uint) (dto.RecordResponse, error)
	Create(ctx context.Context, payload dto.RecordCreateRequest, actor Actor) (dto.RecordResponse, error)
	Update(ctx context.Context, id uint, payload dto.RecordUpdateRequest, actor Actor) (dto.RecordResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	BulkUpsert(ctx context.Context, req dto.BulkUpsertRequest, actor Actor) (dto.BulkUpsertResponse, error)
	DeleteAll(ctx context.Context, actor Actor) (dto.DeleteAllResponse, error)
}

type recordService struct {
	repo      repository.RecordRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewRecordService constructs the grade record service.
func NewRecordService(repo repository.RecordRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) RecordService {
	return &recordService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "record_service").Logger(),
	}
}

func (s *recordService) List(ctx context.Context, req dto.RecordListRequest) ([]dto.RecordResponse, utils.PaginationMeta, error) {
	filter := repository.RecordFilter{
		CourseCode:    strings.TrimSpace(req.CourseCode),
		StudentID:     strings.TrimSpace(req.StudentID),
		StudentName:   strings.TrimSpace(req.StudentName),
		Instructor:    strings.TrimSpace(req.Instructor),
		Grade:         strings.TrimSpace(req.Grade),
		YearCompleted: req.YearCompleted,
		Semester:      strings.TrimSpace(req.Semester),
		SortField:     strings.TrimSpace(req.SortField),
		SortDirection: strings.TrimSpace(req.SortDirection),
		Page:          req.Page,
		Limit:         req.Limit,
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}

	return recordResponses(records), pageMeta(req.Page, req.Limit, total), nil
}

func (s *recordService) GetByCourse(ctx context.Context, courseCode string) ([]dto.RecordResponse, error) {
	records, err := s.repo.ListByCourse(ctx, strings.TrimSpace(courseCode))
	if err != nil {
		return nil, err
	}
	return recordResponses(records), nil
}

func (s *recordService) GetByStudent(ctx context.Context, studentID string) ([]dto.RecordResponse, error) {
	records, err := s.repo.ListByStudent(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return nil, err
	}
	return recordResponses(records), nil
}

func (s *recordService) GetByID(ctx context.Context, id uint) (dto.RecordResponse, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordResponse{}, ErrRecordNotFound
		}
		return dto.RecordResponse{}, err
	}

	return dto.NewRecordResponse(record), nil
}

func (s *recordService) Create(ctx context.Context, payload dto.RecordCreateRequest, actor Actor) (dto.RecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RecordResponse{}, err
	}

	record := recordFromCreate(payload, actor)

	// Existence pre-check is an optimization; the unique index decides races.
	if _, err := s.repo.GetByStudentCourse(ctx, record.StudentID, record.CourseCode); err == nil {
		return dto.RecordResponse{}, ErrDuplicateRecord
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.RecordResponse{}, err
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		if repository.IsDuplicateKey(err) {
			return dto.RecordResponse{}, ErrDuplicateRecord
		}
		return dto.RecordResponse{}, err
	}

	s.audit(actor, "RECORD_CREATED", record)
	return dto.NewRecordResponse(record), nil
}

func (s *recordService) Update(ctx context.Context, id uint, payload dto.RecordUpdateRequest, actor Actor) (dto.RecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RecordResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordResponse{}, ErrRecordNotFound
		}
		return dto.RecordResponse{}, err
	}

	updates := map[string]interface{}{}
	if payload.StudentID != nil {
		updates["student_id"] = strings.TrimSpace(*payload.StudentID)
	}
	if payload.StudentName != nil {
		updates["student_name"] = strings.TrimSpace(*payload.StudentName)
	}
	if payload.CourseCode != nil {
		updates["course_code"] = strings.TrimSpace(*payload.CourseCode)
	}
	if payload.CourseName != nil {
		updates["course_name"] = strings.TrimSpace(*payload.CourseName)
	}
	if payload.Grade != nil {
		updates["grade"] = strings.TrimSpace(*payload.Grade)
	}
	if payload.NumericGrade != nil {
		updates["numeric_grade"] = *payload.NumericGrade
	}
	if payload.Instructor != nil {
		updates["instructor"] = strings.TrimSpace(*payload.Instructor)
	}
	if payload.YearCompleted != nil {
		updates["year_completed"] = *payload.YearCompleted
	}
	if payload.Semester != nil {
		updates["semester"] = *payload.Semester
	}
	if payload.Session != nil {
		updates["session"] = strings.TrimSpace(*payload.Session)
	}

	if len(updates) == 0 {
		return dto.NewRecordResponse(current), nil
	}

	// When the identity pair changes, re-check uniqueness against all other
	// records before writing.
	targetStudent := current.StudentID
	targetCourse := current.CourseCode
	if v, ok := updates["student_id"].(string); ok {
		targetStudent = v
	}
	if v, ok := updates["course_code"].(string); ok {
		targetCourse = v
	}
	if targetStudent != current.StudentID || targetCourse != current.CourseCode {
		taken, err := s.repo.ExistsOther(ctx, id, targetStudent, targetCourse)
		if err != nil {
			return dto.RecordResponse{}, err
		}
		if taken {
			return dto.RecordResponse{}, ErrDuplicateRecord
		}
	}

	if actor.ID > 0 {
		updates["updated_by_id"] = actor.ID
	}

	record, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.RecordResponse{}, ErrRecordNotFound
		case repository.IsDuplicateKey(err):
			return dto.RecordResponse{}, ErrDuplicateRecord
		default:
			return dto.RecordResponse{}, err
		}
	}

	s.audit(actor, "RECORD_UPDATED", record)
	return dto.NewRecordResponse(record), nil
}

func (s *recordService) Delete(ctx context.Context, id uint, actor Actor) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	s.audit(actor, "RECORD_DELETED", record)
	return nil
}

// BulkUpsert processes every item independently: a malformed or conflicting
// item is reported in its slot and never aborts or rolls back its siblings.
func (s *recordService) BulkUpsert(ctx context.Context, req dto.BulkUpsertRequest, actor Actor) (dto.BulkUpsertResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.BulkUpsertResponse{}, err
	}

	response := dto.BulkUpsertResponse{Results: make([]dto.BulkItemResult, 0, len(req.Items))}

	for index, item := range req.Items {
		result := dto.BulkItemResult{
			Index:      index,
			StudentID:  strings.TrimSpace(item.StudentID),
			CourseCode: strings.TrimSpace(item.CourseCode),
		}

		outcome, err := s.upsertItem(ctx, item, actor)
		if err != nil {
			result.Outcome = dto.BulkOutcomeError
			result.Error = bulkItemError(err)
			response.Failed++
		} else {
			result.Outcome = outcome
			if outcome == dto.BulkOutcomeCreated {
				response.Created++
			} else {
				response.Updated++
			}
		}

		response.Results = append(response.Results, result)
	}

	s.activity.Record(ActivityEntry{
		UserID:   actor.Ref(),
		Username: actor.Username,
		UserType: actor.Role,
		Action:   "RECORDS_BULK_UPLOADED",
		Details: map[string]interface{}{
			"created": response.Created,
			"updated": response.Updated,
			"failed":  response.Failed,
		},
		IPAddress: actor.IP,
	})

	return response, nil
}

func (s *recordService) upsertItem(ctx context.Context, item dto.RecordCreateRequest, actor Actor) (string, error) {
	if err := s.validator.Struct(item); err != nil {
		return "", err
	}

	studentID := strings.TrimSpace(item.StudentID)
	courseCode := strings.TrimSpace(item.CourseCode)

	existing, err := s.repo.GetByStudentCourse(ctx, studentID, courseCode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	if err == nil {
		if _, err := s.repo.Update(ctx, existing.ID, bulkItemUpdates(item, actor)); err != nil {
			return "", err
		}
		return dto.BulkOutcomeUpdated, nil
	}

	record := recordFromCreate(item, actor)
	if err := s.repo.Create(ctx, &record); err != nil {
		// Lost a race to a concurrent create for the same pair; fall back to
		// updating the winner.
		if repository.IsDuplicateKey(err) {
			winner, lookupErr := s.repo.GetByStudentCourse(ctx, studentID, courseCode)
			if lookupErr != nil {
				return "", err
			}
			if _, updateErr := s.repo.Update(ctx, winner.ID, bulkItemUpdates(item, actor)); updateErr != nil {
				return "", updateErr
			}
			return dto.BulkOutcomeUpdated, nil
		}
		return "", err
	}

	return dto.BulkOutcomeCreated, nil
}

func (s *recordService) DeleteAll(ctx context.Context, actor Actor) (dto.DeleteAllResponse, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return dto.DeleteAllResponse{}, err
	}

	s.activity.Record(ActivityEntry{
		UserID:    actor.Ref(),
		Username:  actor.Username,
		UserType:  actor.Role,
		Action:    "RECORDS_WIPED",
		Details:   map[string]interface{}{"deleted": deleted},
		IPAddress: actor.IP,
	})

	s.logger.Warn().Int64("deleted", deleted).Str("actor", actor.Username).Msg("all grade records deleted")
	return dto.DeleteAllResponse{Deleted: deleted}, nil
}

func (s *recordService) audit(actor Actor, action string, record models.GradeRecord) {
	s.activity.Record(ActivityEntry{
		UserID:   actor.Ref(),
		Username: actor.Username,
		UserType: actor.Role,
		Action:   action,
		Details: map[string]interface{}{
			"record_id":   record.ID,
			"student_id":  record.StudentID,
			"course_code": record.CourseCode,
		},
		IPAddress: actor.IP,
	})
}

func recordFromCreate(payload dto.RecordCreateRequest, actor Actor) models.GradeRecord {
	record := models.GradeRecord{
		StudentID:     strings.TrimSpace(payload.StudentID),
		StudentName:   strings.TrimSpace(payload.StudentName),
		CourseCode:    strings.TrimSpace(payload.CourseCode),
		CourseName:    strings.TrimSpace(payload.CourseName),
		Grade:         strings.TrimSpace(payload.Grade),
		NumericGrade:  models.DefaultNumericGrade,
		Instructor:    models.DefaultInstructor,
		YearCompleted: time.Now().Year(),
		Semester:      models.SemesterFirst,
		Session:       strings.TrimSpace(payload.Session),
		UpdatedByID:   actor.Ref(),
	}

	if payload.NumericGrade != nil {
		record.NumericGrade = *payload.NumericGrade
	}
	if instructor := strings.TrimSpace(payload.Instructor); instructor != "" {
		record.Instructor = instructor
	}
	if payload.YearCompleted != nil {
		record.YearCompleted = *payload.YearCompleted
	}
	if payload.Semester != "" {
		record.Semester = payload.Semester
	}

	return record
}

func bulkItemUpdates(item dto.RecordCreateRequest, actor Actor) map[string]interface{} {
	updates := map[string]interface{}{
		"student_name": strings.TrimSpace(item.StudentName),
		"grade":        strings.TrimSpace(item.Grade),
	}

	if name := strings.TrimSpace(item.CourseName); name != "" {
		updates["course_name"] = name
	}
	if item.NumericGrade != nil {
		updates["numeric_grade"] = *item.NumericGrade
	}
	if instructor := strings.TrimSpace(item.Instructor); instructor != "" {
		updates["instructor"] = instructor
	}
	if item.YearCompleted != nil {
		updates["year_completed"] = *item.YearCompleted
	}
	if item.Semester != "" {
		updates["semester"] = item.Semester
	}
	if session := strings.TrimSpace(item.Session); session != "" {
		updates["session"] = session
	}
	if actor.ID > 0 {
		updates["updated_by_id"] = actor.ID
	}

	return updates
}

func bulkItemError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return strings.Join(utils.ValidationMessages(err), "; ")
	}
	if repository.IsDuplicateKey(err) {
		return ErrDuplicateRecord.Error()
	}
	return err.Error()
}

func recordResponses(records []models.GradeRecord) []dto.RecordResponse {
	responses := make([]dto.RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.NewRecordResponse(record))
	}
	return responses
}
