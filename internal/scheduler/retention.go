// Package scheduler runs the optional cron-driven maintenance jobs.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jalh2/ulpdsrd-backend/internal/service"
)

// RetentionSweeper periodically prunes aged audit log entries. It is only
// started when a cron expression is configured; the caller-invoked cleanup
// endpoint remains the primary path.
type RetentionSweeper struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewRetentionSweeper schedules the retention sweep. An empty spec disables
// scheduling and returns a sweeper whose Start/Stop are no-ops.
func NewRetentionSweeper(spec string, retentionDays int, activity service.ActivityService, logger zerolog.Logger) (*RetentionSweeper, error) {
	sweeper := &RetentionSweeper{
		logger: logger.With().Str("component", "retention_sweeper").Logger(),
	}

	if spec == "" {
		return sweeper, nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		result, err := activity.Cleanup(context.Background(), retentionDays)
		if err != nil {
			sweeper.logger.Error().Err(err).Msg("scheduled retention sweep failed")
			return
		}
		sweeper.logger.Info().Int64("deleted", result.Deleted).Msg("scheduled retention sweep completed")
	})
	if err != nil {
		return nil, err
	}

	sweeper.cron = c
	return sweeper, nil
}

// Start begins the schedule, if one is configured.
func (s *RetentionSweeper) Start() {
	if s.cron != nil {
		s.cron.Start()
	}
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *RetentionSweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
