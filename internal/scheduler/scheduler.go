// Package scheduler fires the weekly rollover: shortly after each Sunday
// midnight in the anchor zone it makes sure the new week exists.
package scheduler

import (
	"context"
	"time"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/models"
)

// Ensurer creates the current week if it is missing.
type Ensurer interface {
	EnsureCurrentWeek(ctx context.Context) (models.Week, error)
}

// Hook runs before each rollover, e.g. to take a backup.
type Hook func(ctx context.Context) error

type Scheduler struct {
	ensurer Ensurer
	cal     *calendar.Calendar
	offset  time.Duration
	hooks   []Hook
	after   func(time.Duration) <-chan time.Time
}

// New returns a scheduler firing offset after every week boundary.
func New(ensurer Ensurer, cal *calendar.Calendar, offset time.Duration, hooks ...Hook) *Scheduler {
	if offset < 0 {
		offset = 0
	}
	return &Scheduler{
		ensurer: ensurer,
		cal:     cal,
		offset:  offset,
		hooks:   hooks,
		after:   time.After,
	}
}

// Next returns the first firing instant strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.cal.NextWeekBoundary(now.Add(-s.offset)).Add(s.offset)
}

// Run fires on every boundary until ctx is cancelled. A failed rollover is
// logged and left for the next tick or the next request.
func (s *Scheduler) Run(ctx context.Context) {
	for ctx.Err() == nil {
		now := s.cal.Now()
		next := s.Next(now)
		logger.Info("Next week rollover scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			continue
		case <-s.after(next.Sub(now)):
		}

		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Week rollover failed", "error", err)
		}
	}
	logger.Debug("Scheduler stopped")
}

// Tick runs the hooks and then ensures the current week. Hook failures are
// logged and do not block the rollover.
func (s *Scheduler) Tick(ctx context.Context) error {
	for _, hook := range s.hooks {
		if err := hook(ctx); err != nil {
			logger.Warn("Rollover hook failed", "error", err)
		}
	}

	week, err := s.ensurer.EnsureCurrentWeek(ctx)
	if err != nil {
		return err
	}
	logger.Info("Week rollover complete", "weekId", week.WeekID, "habits", len(week.Habits))
	return nil
}
