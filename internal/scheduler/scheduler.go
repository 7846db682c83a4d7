// Package scheduler runs the price update and alert pass on a schedule.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/logging"
	"bse-portfolio/pkg/utils"
)

// Job is one scheduled unit of work, typically the price update pass.
type Job func(ctx context.Context)

// Scheduler drives jobs on an interval or a daily time, in IST. When
// MarketHoursOnly is set, jobs are skipped outside the BSE session; the
// evaluation interval is the effective alert de-bounce window.
type Scheduler struct {
	cron            *cron.Cron
	baseCtx         context.Context
	marketHoursOnly bool
}

// New creates a scheduler running in the Indian market timezone.
func New(baseCtx context.Context, marketHoursOnly bool) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(utils.IndiaLocation)),
		baseCtx:         baseCtx,
		marketHoursOnly: marketHoursOnly,
	}
}

// AddInterval schedules a job every n minutes.
func (s *Scheduler) AddInterval(minutes int, job Job) (cron.EntryID, error) {
	if minutes <= 0 {
		return 0, apperrors.NewValidationError("interval_minutes", minutes, "must be positive")
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %dm", minutes), s.wrap(job))
}

// AddDaily schedules a job every day at "HH:MM" IST.
func (s *Scheduler) AddDaily(at string, job Job) (cron.EntryID, error) {
	hour, minute, err := parseClock(at)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), s.wrap(job))
}

// wrap applies the market-hours gate around a job.
func (s *Scheduler) wrap(job Job) func() {
	return func() {
		if s.marketHoursOnly && !utils.IsMarketOpen(time.Now()) {
			logger := logging.FromContext(s.baseCtx)
			logger.Debug().
				Time("next_open", utils.NextMarketOpen(time.Now())).
				Msg("Market closed, skipping scheduled run")
			return
		}
		job(s.baseCtx)
	}
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	logger := logging.FromContext(s.baseCtx)
	logger.Info().Msg("Scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger := logging.FromContext(s.baseCtx)
	logger.Info().Msg("Scheduler stopped")
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(at string) (int, int, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return 0, 0, apperrors.NewValidationError("daily_at", at, "want HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, apperrors.NewValidationError("daily_at", at, "hour out of range")
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, apperrors.NewValidationError("daily_at", at, "minute out of range")
	}
	return hour, minute, nil
}
