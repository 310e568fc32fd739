package tracker

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/storage"
)

type ToggleResult struct {
	Message   string `json:"message"`
	WeekID    string `json:"weekId"`
	HabitID   string `json:"habitId"`
	Day       string `json:"day"`
	Completed bool   `json:"completed"`
	Progress  int    `json:"progress"`
}

// Toggle flips one day's completion for a habit in the current week.
// Applying it twice restores the original state, so callers must not retry
// blindly after an ambiguous failure.
func (s *Service) Toggle(ctx context.Context, habitID, day string) (ToggleResult, error) {
	wd, err := models.ParseWeekday(day)
	if err != nil {
		return ToggleResult{}, errors.InvalidInput("%v", err)
	}
	habitID = strings.TrimSpace(habitID)
	if habitID == "" {
		return ToggleResult{}, errors.InvalidInput("habitId is required")
	}

	var completed bool
	week, err := s.mutateCurrentWeek(ctx, func(w *models.Week) error {
		i := w.EntryIndex(habitID)
		if i < 0 {
			return errors.NotFound("habit %s is not in the current week", habitID)
		}
		entry := &w.Habits[i]
		if !entry.ScheduledDays.Has(wd) {
			return errors.InvalidOperation("habit is not scheduled for %s", wd)
		}
		completed = !entry.Completion.Get(wd)
		entry.Completion.Set(wd, completed)
		return nil
	})
	if stderrors.Is(err, storage.ErrNotFound) {
		return ToggleResult{}, errNoCurrentWeek()
	}
	if err != nil {
		return ToggleResult{}, err
	}

	logger.Debug("Toggled completion", "weekId", week.WeekID, "habitId", habitID, "day", wd, "completed", completed)
	return ToggleResult{
		Message:   "Habit toggled successfully",
		WeekID:    week.WeekID,
		HabitID:   habitID,
		Day:       wd.String(),
		Completed: completed,
		Progress:  week.Progress,
	}, nil
}
