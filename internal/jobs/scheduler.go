// Package jobs runs the background cron schedule.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DailyResetter clears the daily winnings board.
type DailyResetter interface {
	ResetDaily(ctx context.Context) error
}

// Scheduler owns the cron instance and its jobs.
type Scheduler struct {
	cron    *cron.Cron
	ranking DailyResetter
	log     zerolog.Logger
}

// NewScheduler creates the scheduler. Times are interpreted in the host's
// local timezone.
func NewScheduler(ranking DailyResetter, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		ranking: ranking,
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the jobs and starts the cron loop. The daily winnings
// board resets at midnight.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("0 0 * * *", func() {
		s.log.Info().Msg("resetting daily winnings")
		if err := s.ranking.ResetDaily(ctx); err != nil {
			s.log.Error().Err(err).Msg("daily winnings reset failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Msg("scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}
