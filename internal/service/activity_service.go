package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/repository"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

const (
	activityQueueSize  = 64
	activityWriteLimit = 5 * time.Second
	statsCacheKey      = "ulpdsrd:activity:stats"
)

// Actor identifies the authenticated caller of a mutating operation. It is
// populated once per request from verified token claims and passed by value;
// services never consult ambient state for identity.
type Actor struct {
	ID       uint
	Username string
	Role     string
	IP       string
}

// Ref returns the actor's user reference, or nil for anonymous/system actors.
func (a Actor) Ref() *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	UserID    *uint
	Username  string
	UserType  string
	Action    string
	Details   map[string]interface{}
	IPAddress string
}

// ActivityRecorder appends audit entries best-effort: failures are logged
// server-side and never propagate to the recording caller.
type ActivityRecorder interface {
	Record(entry ActivityEntry)
}

// ActivityService exposes the audit trail: best-effort append, paginated
// reads, aggregate statistics and retention cleanup.
type ActivityService interface {
	ActivityRecorder
	Start(ctx context.Context)
	Stop()
	Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) error
	List(ctx context.Context, req dto.ActivityListRequest) ([]dto.ActivityResponse, utils.PaginationMeta, error)
	Stats(ctx context.Context) (dto.ActivityStatsResponse, error)
	Cleanup(ctx context.Context, olderThanDays int) (dto.CleanupResponse, error)
}

type activityService struct {
	repo        repository.ActivityLogRepository
	redis       *redis.Client
	nats        *nats.Conn
	natsSubject string
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	queue       chan ActivityEntry
	done        chan struct{}
}

// NewActivityService constructs the activity log service. The redis client
// and NATS connection are both optional; a nil client disables stats caching
// and a nil connection disables event fan-out.
func NewActivityService(repo repository.ActivityLogRepository, redisClient *redis.Client, natsConn *nats.Conn, subjectBase string, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	subject := ""
	if subjectBase != "" {
		subject = strings.ReplaceAll(subjectBase, ":", ".") + ".activity"
	}

	return &activityService{
		repo:        repo,
		redis:       redisClient,
		nats:        natsConn,
		natsSubject: subject,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "activity_service").Logger(),
		queue:       make(chan ActivityEntry, activityQueueSize),
		done:        make(chan struct{}),
	}
}

// Start launches the background writer that drains the append queue.
func (s *activityService) Start(ctx context.Context) {
	go s.consume(ctx)
}

// Stop closes the queue and waits until buffered entries are flushed.
func (s *activityService) Stop() {
	close(s.queue)
	<-s.done
}

func (s *activityService) consume(ctx context.Context) {
	defer close(s.done)

	for entry := range s.queue {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityWriteLimit)
		s.persist(writeCtx, entry)
		cancel()
	}
}

func (s *activityService) persist(ctx context.Context, entry ActivityEntry) {
	model := models.ActivityLog{
		UserID:    entry.UserID,
		Username:  entry.Username,
		UserType:  entry.UserType,
		Action:    entry.Action,
		Details:   detailsToJSON(entry.Details),
		IPAddress: entry.IPAddress,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", entry.Action).Msg("failed to persist activity log entry")
		return
	}

	s.publish(model)
}

func (s *activityService) publish(model models.ActivityLog) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	payload, err := json.Marshal(dto.NewActivityResponse(model))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode activity event")
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.natsSubject).Msg("failed to publish activity event")
	}
}

// Record enqueues an audit entry without blocking the caller. When the queue
// is saturated the entry is dropped and the drop is logged.
func (s *activityService) Record(entry ActivityEntry) {
	if strings.TrimSpace(entry.Action) == "" {
		s.logger.Warn().Msg("activity entry without action discarded")
		return
	}

	select {
	case s.queue <- entry:
	default:
		s.logger.Warn().Str("action", entry.Action).Msg("activity queue full, entry dropped")
	}
}

func (s *activityService) Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	s.Record(ActivityEntry{
		UserID:    actor.Ref(),
		Username:  actor.Username,
		UserType:  actor.Role,
		Action:    strings.TrimSpace(payload.Action),
		Details:   payload.Details,
		IPAddress: actor.IP,
	})

	return nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) ([]dto.ActivityResponse, utils.PaginationMeta, error) {
	filter := repository.ActivityLogFilter{
		Username:  strings.TrimSpace(req.Username),
		UserType:  strings.TrimSpace(req.UserType),
		Action:    strings.TrimSpace(req.Action),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Page:      req.Page,
		Limit:     req.Limit,
	}
	if req.UserID > 0 {
		filter.UserID = &req.UserID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	return responses, pageMeta(req.Page, req.Limit, total), nil
}

func (s *activityService) Stats(ctx context.Context) (dto.ActivityStatsResponse, error) {
	if cached, ok := s.cachedStats(ctx); ok {
		cached.CacheHit = true
		return cached, nil
	}

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return dto.ActivityStatsResponse{}, err
	}

	byAction, err := s.repo.CountByAction(ctx)
	if err != nil {
		return dto.ActivityStatsResponse{}, err
	}

	byUserType, err := s.repo.CountByUserType(ctx)
	if err != nil {
		return dto.ActivityStatsResponse{}, err
	}

	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -6)
	daily, err := s.repo.CountDailySince(ctx, since)
	if err != nil {
		return dto.ActivityStatsResponse{}, err
	}

	stats := dto.ActivityStatsResponse{
		Total:       total,
		ByAction:    byAction,
		ByUserType:  byUserType,
		Last7Days:   daily,
		GeneratedAt: time.Now().UTC(),
	}

	s.cacheStats(ctx, stats)
	return stats, nil
}

func (s *activityService) cachedStats(ctx context.Context) (dto.ActivityStatsResponse, bool) {
	if s.redis == nil {
		return dto.ActivityStatsResponse{}, false
	}

	raw, err := s.redis.Get(ctx, statsCacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
		return dto.ActivityStatsResponse{}, false
	}

	var stats dto.ActivityStatsResponse
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return dto.ActivityStatsResponse{}, false
	}

	return stats, true
}

func (s *activityService) cacheStats(ctx context.Context, stats dto.ActivityStatsResponse) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, statsCacheKey, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write stats cache")
	}
}

func (s *activityService) Cleanup(ctx context.Context, olderThanDays int) (dto.CleanupResponse, error) {
	if olderThanDays <= 0 {
		olderThanDays = 30
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return dto.CleanupResponse{}, fmt.Errorf("retention cleanup failed: %w", err)
	}

	s.logger.Info().Int64("deleted", deleted).Int("days", olderThanDays).Msg("activity log retention sweep completed")
	return dto.CleanupResponse{Deleted: deleted, Days: olderThanDays}, nil
}

func detailsToJSON(details map[string]interface{}) datatypes.JSONMap {
	if details == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(details)
}

func pageMeta(page, limit int, total int64) utils.PaginationMeta {
	meta := utils.PaginationMeta{
		Page:       maxInt(page, 1),
		Limit:      limit,
		TotalItems: total,
	}
	if limit > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	} else {
		meta.TotalPages = 1
	}
	return meta
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
