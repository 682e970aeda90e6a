package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/repository"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

func newRecordService(t *testing.T) (RecordService, *recorderStub) {
	t.Helper()
	db := setupTestDB(t)
	recorder := &recorderStub{}
	svc := NewRecordService(repository.NewRecordRepository(db), utils.NewValidator(), recorder, testLogger())
	return svc, recorder
}

func minimalCreate(studentID, courseCode string) dto.RecordCreateRequest {
	return dto.RecordCreateRequest{
		StudentID:   studentID,
		StudentName: "Alice Johnson",
		CourseCode:  courseCode,
		Grade:       "A",
	}
}

func TestRecordServiceCreateAppliesDefaults(t *testing.T) {
	svc, recorder := newRecordService(t)

	created, err := svc.Create(context.Background(), minimalCreate("UL-1001", "CS101"), Actor{ID: 7, Username: "chair", Role: models.RoleChairman})
	require.NoError(t, err)
	require.Equal(t, float64(models.DefaultNumericGrade), created.NumericGrade)
	require.Equal(t, models.DefaultInstructor, created.Instructor)
	require.Equal(t, models.SemesterFirst, created.Semester)
	require.Equal(t, time.Now().Year(), created.YearCompleted)
	require.NotNil(t, created.UpdatedByID)
	require.Equal(t, uint(7), *created.UpdatedByID)

	require.Equal(t, []string{"RECORD_CREATED"}, recorder.actions())
}

func TestRecordServiceCreateRejectsDuplicatePair(t *testing.T) {
	svc, recorder := newRecordService(t)

	_, err := svc.Create(context.Background(), minimalCreate("UL-1001", "CS101"), Actor{ID: 7})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), minimalCreate("UL-1001", "CS101"), Actor{ID: 7})
	require.ErrorIs(t, err, ErrDuplicateRecord)
	require.Len(t, recorder.entries, 1, "rejected create must not be audited")

	// Same student, different course is allowed.
	_, err = svc.Create(context.Background(), minimalCreate("UL-1001", "CS201"), Actor{ID: 7})
	require.NoError(t, err)
}

func TestRecordServiceCreateValidation(t *testing.T) {
	svc, _ := newRecordService(t)

	payload := minimalCreate("UL-1001", "CS101")
	payload.Grade = ""
	bad := 120.0
	payload.NumericGrade = &bad

	_, err := svc.Create(context.Background(), payload, Actor{ID: 7})
	require.Error(t, err)

	messages := utils.ValidationMessages(err)
	require.Len(t, messages, 2, "every violated rule must be reported")
}

func TestRecordServiceUpdatePartial(t *testing.T) {
	svc, recorder := newRecordService(t)

	payload := minimalCreate("UL-1001", "CS101")
	instructor := "Dr. Payne"
	payload.Instructor = instructor
	created, err := svc.Create(context.Background(), payload, Actor{ID: 7})
	require.NoError(t, err)

	grade := "B+"
	numeric := 87.5
	updated, err := svc.Update(context.Background(), created.ID, dto.RecordUpdateRequest{Grade: &grade, NumericGrade: &numeric}, Actor{ID: 9, Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, "B+", updated.Grade)
	require.Equal(t, 87.5, updated.NumericGrade)
	require.Equal(t, instructor, updated.Instructor, "omitted fields must be untouched")
	require.Equal(t, created.StudentID, updated.StudentID)
	require.NotNil(t, updated.UpdatedByID)
	require.Equal(t, uint(9), *updated.UpdatedByID)

	require.Equal(t, []string{"RECORD_CREATED", "RECORD_UPDATED"}, recorder.actions())
}

func TestRecordServiceUpdateRejectsConflictingPair(t *testing.T) {
	svc, _ := newRecordService(t)

	_, err := svc.Create(context.Background(), minimalCreate("UL-1001", "CS101"), Actor{ID: 7})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), minimalCreate("UL-1001", "CS201"), Actor{ID: 7})
	require.NoError(t, err)

	course := "CS101"
	_, err = svc.Update(context.Background(), second.ID, dto.RecordUpdateRequest{CourseCode: &course}, Actor{ID: 7})
	require.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestRecordServiceUpdateMissing(t *testing.T) {
	svc, _ := newRecordService(t)

	grade := "A"
	_, err := svc.Update(context.Background(), 999, dto.RecordUpdateRequest{Grade: &grade}, Actor{ID: 7})
	require.ErrorIs(t, err, ErrRecordNotFound)

	err = svc.Delete(context.Background(), 999, Actor{ID: 7})
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordServiceBulkUpsertIsolatesItems(t *testing.T) {
	svc, recorder := newRecordService(t)

	existing, err := svc.Create(context.Background(), minimalCreate("UL-1001", "CS101"), Actor{ID: 7})
	require.NoError(t, err)

	broken := minimalCreate("UL-1002", "CS102")
	broken.Grade = ""

	refresh := minimalCreate("UL-1001", "CS101")
	refresh.Grade = "B"

	response, err := svc.BulkUpsert(context.Background(), dto.BulkUpsertRequest{
		Items: []dto.RecordCreateRequest{
			minimalCreate("UL-1003", "CS103"),
			broken,
			refresh,
		},
	}, Actor{ID: 7, Username: "chair", Role: models.RoleChairman})
	require.NoError(t, err)

	require.Equal(t, 1, response.Created)
	require.Equal(t, 1, response.Updated)
	require.Equal(t, 1, response.Failed)
	require.Len(t, response.Results, 3)

	require.Equal(t, dto.BulkOutcomeCreated, response.Results[0].Outcome)
	require.Equal(t, dto.BulkOutcomeError, response.Results[1].Outcome)
	require.NotEmpty(t, response.Results[1].Error)
	require.Equal(t, dto.BulkOutcomeUpdated, response.Results[2].Outcome)

	// The malformed sibling must not roll back the others.
	record, err := svc.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	require.Equal(t, "B", record.Grade)

	require.Contains(t, recorder.actions(), "RECORDS_BULK_UPLOADED")
}

func TestRecordServiceDeleteAll(t *testing.T) {
	svc, recorder := newRecordService(t)

	_, err := svc.Create(context.Background(), minimalCreate("UL-1001", "CS101"), Actor{ID: 7})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), minimalCreate("UL-1002", "CS101"), Actor{ID: 7})
	require.NoError(t, err)

	response, err := svc.DeleteAll(context.Background(), Actor{ID: 9, Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, int64(2), response.Deleted)

	_, meta, err := svc.List(context.Background(), dto.RecordListRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Zero(t, meta.TotalItems)

	require.Contains(t, recorder.actions(), "RECORDS_WIPED")
}
