// Package scheduler runs the daily spoilage routine at a configured local
// time of day.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Routine is the job the scheduler fires once per day.
type Routine func(ctx context.Context) error

// Scheduler fires a routine at a fixed HH:MM local time, once daily.
type Scheduler struct {
	at      string
	routine Routine
	logger  *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New returns a scheduler firing at the given "HH:MM" local time.
func New(at string, routine Routine, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := time.Parse("15:04", at); err != nil {
		return nil, fmt.Errorf("invalid schedule time %q: %w", at, err)
	}
	return &Scheduler{at: at, routine: routine, logger: logger, now: time.Now}, nil
}

// NextRun returns the next occurrence of the scheduled time after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	at, _ := time.Parse("15:04", s.at)
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, firing the routine daily until ctx is cancelled. A failing
// routine is logged and the loop keeps going; scheduled-trigger failures
// never reach the user.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler initialized",
		zap.String("at", s.at),
		zap.Time("next_run", s.NextRun(s.now())))

	for {
		next := s.NextRun(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.logger.Info("running scheduled spoilage pass")
		if err := s.routine(ctx); err != nil {
			s.logger.Error("scheduled spoilage pass failed", zap.Error(err))
		}
	}
}
