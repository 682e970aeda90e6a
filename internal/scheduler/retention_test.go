package scheduler

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jalh2/ulpdsrd-backend/internal/dto"
	"github.com/jalh2/ulpdsrd-backend/internal/service"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

type activityServiceStub struct {
	cleanups int
}

func (s *activityServiceStub) Record(service.ActivityEntry) {}

func (s *activityServiceStub) Start(context.Context) {}

func (s *activityServiceStub) Stop() {}

func (s *activityServiceStub) Create(context.Context, service.Actor, dto.ActivityCreateRequest) error {
	return nil
}

func (s *activityServiceStub) List(context.Context, dto.ActivityListRequest) ([]dto.ActivityResponse, utils.PaginationMeta, error) {
	return nil, utils.PaginationMeta{}, nil
}

func (s *activityServiceStub) Stats(context.Context) (dto.ActivityStatsResponse, error) {
	return dto.ActivityStatsResponse{}, nil
}

func (s *activityServiceStub) Cleanup(context.Context, int) (dto.CleanupResponse, error) {
	s.cleanups++
	return dto.CleanupResponse{}, nil
}

func TestRetentionSweeperEmptySpecIsNoop(t *testing.T) {
	sweeper, err := NewRetentionSweeper("", 30, &activityServiceStub{}, zerolog.New(io.Discard))
	require.NoError(t, err)

	sweeper.Start()
	sweeper.Stop()
}

func TestRetentionSweeperRejectsInvalidSpec(t *testing.T) {
	_, err := NewRetentionSweeper("not a cron spec", 30, &activityServiceStub{}, zerolog.New(io.Discard))
	require.Error(t, err)
}

func TestRetentionSweeperStartStop(t *testing.T) {
	sweeper, err := NewRetentionSweeper("@daily", 30, &activityServiceStub{}, zerolog.New(io.Discard))
	require.NoError(t, err)

	sweeper.Start()
	sweeper.Stop()
}
