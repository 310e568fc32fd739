package models

import (
	"slices"
	"time"
)

// WeekHabitEntry is a week's own copy of a habit plus that week's completion.
type WeekHabitEntry struct {
	HabitID       string     `json:"habitId"`
	Title         string     `json:"title"`
	ScheduledDays Days       `json:"scheduledDays"`
	IsCompulsory  bool       `json:"isCompulsory"`
	Color         string     `json:"color"`
	Completion    Completion `json:"completion"`
}

// NewWeekHabitEntry snapshots h with every day incomplete.
func NewWeekHabitEntry(h Habit) WeekHabitEntry {
	e := WeekHabitEntry{HabitID: h.ID}
	e.Refresh(h)
	return e
}

// Refresh overwrites the snapshot fields from h and keeps completion.
func (e *WeekHabitEntry) Refresh(h Habit) {
	e.Title = h.Title
	e.ScheduledDays = append(Days(nil), h.ScheduledDays...)
	e.IsCompulsory = h.IsCompulsory
	e.Color = h.Color
}

// Matches reports whether the snapshot fields equal h's.
func (e WeekHabitEntry) Matches(h Habit) bool {
	return e.Title == h.Title &&
		slices.Equal(e.ScheduledDays, h.ScheduledDays) &&
		e.IsCompulsory == h.IsCompulsory &&
		e.Color == h.Color
}

type Week struct {
	WeekID    string           `json:"weekId"`
	WeekStart time.Time        `json:"weekStart"`
	WeekEnd   time.Time        `json:"weekEnd"`
	Habits    []WeekHabitEntry `json:"habits"`
	Progress  int              `json:"progress"`
	IsCurrent bool             `json:"isCurrent"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	// Version is bumped by the store on every save.
	Version int64 `json:"-"`
}

// EntryIndex returns the position of the entry for habitID, or -1.
func (w *Week) EntryIndex(habitID string) int {
	for i := range w.Habits {
		if w.Habits[i].HabitID == habitID {
			return i
		}
	}
	return -1
}

// RemoveEntry drops the entry for habitID and reports whether one existed.
func (w *Week) RemoveEntry(habitID string) bool {
	i := w.EntryIndex(habitID)
	if i < 0 {
		return false
	}
	w.Habits = append(w.Habits[:i], w.Habits[i+1:]...)
	return true
}

// Covers reports whether the civil date falls within the week.
func (w *Week) Covers(date time.Time) bool {
	return !date.Before(w.WeekStart) && !date.After(w.WeekEnd)
}

// Clone returns a deep copy, so callers can mutate without aliasing the store.
func (w Week) Clone() Week {
	out := w
	out.Habits = make([]WeekHabitEntry, len(w.Habits))
	for i, e := range w.Habits {
		e.ScheduledDays = append(Days(nil), e.ScheduledDays...)
		out.Habits[i] = e
	}
	return out
}
