package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
)

// ActivityLogFilter narrows audit trail queries. Username and Action match
// case-insensitive substrings; UserType matches exactly. The date bounds are
// inclusive and independently optional.
type ActivityLogFilter struct {
	UserID    *uint
	Username  string
	UserType  string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// ActivityLogRepository persists the append-only audit trail. Entries are
// never updated; deletion happens only through the retention sweep.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountByAction(ctx context.Context) ([]dto.ActionCount, error)
	CountByUserType(ctx context.Context) ([]dto.UserTypeCount, error)
	CountDailySince(ctx context.Context, since time.Time) ([]dto.DailyCount, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Username != "" {
		query = query.Where(`LOWER(username) LIKE ? ESCAPE '\'`, substringPattern(filter.Username))
	}
	if filter.UserType != "" {
		query = query.Where("user_type = ?", filter.UserType)
	}
	if filter.Action != "" {
		query = query.Where(`LOWER(action) LIKE ? ESCAPE '\'`, substringPattern(filter.Action))
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.Limit).Offset((page - 1) * filter.Limit)
	}

	var entries []models.ActivityLog
	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *activityLogRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Count(&total).Error
	return total, err
}

func (r *activityLogRepository) CountByAction(ctx context.Context) ([]dto.ActionCount, error) {
	var counts []dto.ActionCount
	err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Select("action, COUNT(*) AS count").
		Group("action").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}

func (r *activityLogRepository) CountByUserType(ctx context.Context) ([]dto.UserTypeCount, error) {
	var counts []dto.UserTypeCount
	err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Select("user_type, COUNT(*) AS count").
		Group("user_type").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}

func (r *activityLogRepository) CountDailySince(ctx context.Context, since time.Time) ([]dto.DailyCount, error) {
	var counts []dto.DailyCount
	err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *activityLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	return tx.RowsAffected, tx.Error
}
