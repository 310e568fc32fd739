package tracker

import (
	"context"
	stderrors "errors"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/progress"
	"github.com/julianstephens/weeklit/internal/storage"
)

const maxAttempts = constants.MaxWeekWriteAttempts

// errUnchanged tells mutateCurrentWeek that the mutation was a no-op.
var errUnchanged = stderrors.New("week unchanged")

// EnsureCurrentWeek returns the week for today, creating it from the active
// habits if it does not exist yet. Losing a creation race to another caller
// is not an error: the winner's week is returned.
//
// An existing week is settled before it is returned: a week stored without
// its current flag gets it back, and entries that drifted from the active
// habits after a failed propagation are brought back in line. Both are
// no-ops on a healthy store.
func (s *Service) EnsureCurrentWeek(ctx context.Context) (models.Week, error) {
	weekID := s.cal.CurrentWeekID()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		week, err := s.store.GetWeek(ctx, weekID)
		if err == nil {
			return s.settle(ctx, week)
		}
		if !stderrors.Is(err, storage.ErrNotFound) {
			return models.Week{}, storageErr("get week", err)
		}

		habits, err := s.store.ListHabits(ctx, true)
		if err != nil {
			return models.Week{}, storageErr("list habits", err)
		}

		start := s.cal.CurrentWeekStart()
		week = models.Week{
			WeekID:    weekID,
			WeekStart: start,
			WeekEnd:   calendar.WeekEnd(start),
			Habits:    make([]models.WeekHabitEntry, 0, len(habits)),
			CreatedAt: s.cal.Now().UTC(),
		}
		for _, h := range habits {
			week.Habits = append(week.Habits, models.NewWeekHabitEntry(h))
		}
		week.Progress = progress.Compute(week.Habits)

		created, err := s.store.CreateWeek(ctx, week)
		if err == nil {
			logger.Info("Created week", "weekId", created.WeekID, "habits", len(created.Habits))
			return created, nil
		}
		if !stderrors.Is(err, storage.ErrDuplicateWeek) {
			return models.Week{}, storageErr("create week", err)
		}
		logger.Debug("Week created concurrently, re-reading", "weekId", weekID)
		lastErr = err
	}
	return models.Week{}, exhausted("ensure current week", lastErr)
}

func (s *Service) settle(ctx context.Context, week models.Week) (models.Week, error) {
	if !week.IsCurrent {
		if _, err := s.markCurrent(ctx, week.WeekID); err != nil {
			return models.Week{}, err
		}
	}

	habits, err := s.store.ListHabits(ctx, true)
	if err != nil {
		return models.Week{}, storageErr("list habits", err)
	}
	settled, err := s.mutateCurrentWeek(ctx, syncEntries(habits))
	if stderrors.Is(err, storage.ErrNotFound) {
		return models.Week{}, storageErr("reconcile current week", err)
	}
	if err != nil {
		return models.Week{}, err
	}
	if settled.Version != week.Version {
		logger.Info("Reconciled current week with habits", "weekId", settled.WeekID, "habits", len(settled.Habits))
	}
	return settled, nil
}

func (s *Service) markCurrent(ctx context.Context, weekID string) (models.Week, error) {
	logger.Warn("Week is stored but not flagged current, repairing", "weekId", weekID)
	week, err := s.store.MarkCurrent(ctx, weekID)
	if err != nil {
		return models.Week{}, storageErr("mark current week", err)
	}
	return week, nil
}

// loadCurrent returns the week flagged current. When none is flagged but
// today's week is stored, the flag is restored rather than reporting
// storage.ErrNotFound.
func (s *Service) loadCurrent(ctx context.Context) (models.Week, error) {
	current, err := s.store.GetCurrentWeek(ctx)
	if !stderrors.Is(err, storage.ErrNotFound) {
		return current, err
	}
	today, getErr := s.store.GetWeek(ctx, s.cal.CurrentWeekID())
	switch {
	case stderrors.Is(getErr, storage.ErrNotFound):
		return models.Week{}, err
	case getErr != nil:
		return models.Week{}, getErr
	case today.IsCurrent:
		// Flagged since our first read.
		return today, nil
	}
	return s.markCurrent(ctx, today.WeekID)
}

// mutateCurrentWeek applies fn to a fresh copy of the current week,
// recomputes progress and saves it, retrying when another writer got there
// first. fn may return errUnchanged to skip the write. storage.ErrNotFound
// is returned untranslated when there is no current week.
func (s *Service) mutateCurrentWeek(ctx context.Context, fn func(*models.Week) error) (models.Week, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		current, err := s.loadCurrent(ctx)
		if stderrors.Is(err, storage.ErrNotFound) {
			return models.Week{}, err
		}
		if err != nil {
			return models.Week{}, storageErr("get current week", err)
		}

		week := current.Clone()
		if err := fn(&week); err != nil {
			if stderrors.Is(err, errUnchanged) {
				return current, nil
			}
			return models.Week{}, err
		}
		week.Progress = progress.Compute(week.Habits)

		saved, err := s.store.SaveWeek(ctx, week)
		if err == nil {
			return saved, nil
		}
		if !stderrors.Is(err, storage.ErrConflict) {
			return models.Week{}, storageErr("save week", err)
		}
		logger.Debug("Week changed underneath, retrying", "weekId", week.WeekID, "attempt", attempt+1)
		lastErr = err
	}
	return models.Week{}, exhausted("save week", lastErr)
}

// propagate applies a catalog change to the current week. Having no current
// week is fine; nothing needs updating. On failure the catalog change is
// already stored; the next EnsureCurrentWeek reconciles the week with it.
func (s *Service) propagate(ctx context.Context, habitID string, fn func(*models.Week) error) error {
	week, err := s.mutateCurrentWeek(ctx, fn)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		logger.Error("Failed to update current week", "habitId", habitID, "error", err)
		return storageErr("update current week", err)
	}
	logger.Debug("Current week updated", "weekId", week.WeekID, "habitId", habitID)
	return nil
}

func appendEntry(h models.Habit) func(*models.Week) error {
	return func(w *models.Week) error {
		if w.EntryIndex(h.ID) >= 0 {
			return errUnchanged
		}
		w.Habits = append(w.Habits, models.NewWeekHabitEntry(h))
		return nil
	}
}

func refreshEntry(h models.Habit) func(*models.Week) error {
	return func(w *models.Week) error {
		i := w.EntryIndex(h.ID)
		if i < 0 {
			return errUnchanged
		}
		w.Habits[i].Refresh(h)
		return nil
	}
}

func removeEntry(habitID string) func(*models.Week) error {
	return func(w *models.Week) error {
		if !w.RemoveEntry(habitID) {
			return errUnchanged
		}
		return nil
	}
}

// syncEntries makes the week list exactly the active habits: inactive or
// unknown entries are dropped, stale snapshots refreshed and missing habits
// appended. Completion of kept entries is preserved.
func syncEntries(habits []models.Habit) func(*models.Week) error {
	return func(w *models.Week) error {
		active := make(map[string]models.Habit, len(habits))
		for _, h := range habits {
			active[h.ID] = h
		}

		changed := false
		kept := make([]models.WeekHabitEntry, 0, len(habits))
		seen := make(map[string]bool, len(w.Habits))
		for _, e := range w.Habits {
			h, ok := active[e.HabitID]
			if !ok || seen[e.HabitID] {
				changed = true
				continue
			}
			seen[e.HabitID] = true
			if !e.Matches(h) {
				e.Refresh(h)
				changed = true
			}
			kept = append(kept, e)
		}
		for _, h := range habits {
			if !seen[h.ID] {
				kept = append(kept, models.NewWeekHabitEntry(h))
				changed = true
			}
		}

		if !changed {
			return errUnchanged
		}
		w.Habits = kept
		return nil
	}
}
