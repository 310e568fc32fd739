package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/errors"
)

type Habit struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ScheduledDays Days      `json:"scheduledDays"`
	IsActive      bool      `json:"isActive"`
	IsCompulsory  bool      `json:"isCompulsory"`
	Color         string    `json:"color"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate checks the title and schedule. It normalizes the schedule and
// fills in the default color.
func (h *Habit) Validate() error {
	h.Title = strings.TrimSpace(h.Title)
	if h.Title == "" {
		return errors.InvalidInput("habit title is required")
	}
	if utf8.RuneCountInString(h.Title) > constants.MaxHabitTitleLength {
		return errors.InvalidInput("habit title cannot exceed %d characters", constants.MaxHabitTitleLength)
	}
	h.ScheduledDays = h.ScheduledDays.Normalize()
	if len(h.ScheduledDays) == 0 {
		return errors.InvalidInput("at least one scheduled day is required")
	}
	if strings.TrimSpace(h.Color) == "" {
		h.Color = constants.DefaultHabitColor
	}
	return nil
}

// HabitPatch carries the fields of a partial update. Nil means unchanged.
type HabitPatch struct {
	Title         *string `json:"title,omitempty"`
	ScheduledDays *Days   `json:"scheduledDays,omitempty"`
	IsActive      *bool   `json:"isActive,omitempty"`
	IsCompulsory  *bool   `json:"isCompulsory,omitempty"`
	Color         *string `json:"color,omitempty"`
}

func (p HabitPatch) Empty() bool {
	return p.Title == nil && p.ScheduledDays == nil && p.IsActive == nil &&
		p.IsCompulsory == nil && p.Color == nil
}

// Apply copies the set fields onto h. The caller validates afterwards.
func (p HabitPatch) Apply(h *Habit) {
	if p.Title != nil {
		h.Title = *p.Title
	}
	if p.ScheduledDays != nil {
		h.ScheduledDays = append(Days(nil), (*p.ScheduledDays)...)
	}
	if p.IsActive != nil {
		h.IsActive = *p.IsActive
	}
	if p.IsCompulsory != nil {
		h.IsCompulsory = *p.IsCompulsory
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
}
