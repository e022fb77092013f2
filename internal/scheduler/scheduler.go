// Package scheduler runs the recurring-transaction catch-up as an explicit
// background tick instead of hiding it inside read paths. Every interval it
// scans the definitions whose watermark has passed and materializes the
// pending occurrences.
package scheduler

import (
	"context"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/recurrence"

	"github.com/rs/zerolog"
)

type Scheduler struct {
	processor *recurrence.Processor
	interval  time.Duration
	log       zerolog.Logger
}

func New(processor *recurrence.Processor, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{processor: processor, interval: interval, log: log}
}

// Run ticks until ctx is cancelled. One pass runs immediately on start so a
// restart catches up without waiting a full interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("recurrence scheduler started")

	s.tick()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("recurrence scheduler stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	processed, err := s.processor.ProcessAllDue(time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("catch-up pass failed")
		return
	}
	if processed > 0 {
		s.log.Debug().Int("processed", processed).Msg("catch-up pass finished")
	}
}
