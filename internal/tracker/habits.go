package tracker

import (
	"context"

	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/models"
)

// NewHabit is the input for CreateHabit. Day tokens are parsed strictly.
type NewHabit struct {
	Title         string   `json:"title"`
	ScheduledDays []string `json:"scheduledDays"`
	IsCompulsory  bool     `json:"isCompulsory"`
	Color         string   `json:"color"`
}

// CreateHabit stores a new active habit and appends it to the current week.
func (s *Service) CreateHabit(ctx context.Context, in NewHabit) (models.Habit, error) {
	days, err := models.ParseDays(in.ScheduledDays)
	if err != nil {
		return models.Habit{}, errors.InvalidInput("%v", err)
	}

	now := s.cal.Now().UTC()
	h := models.Habit{
		ID:            s.newID(),
		Title:         in.Title,
		ScheduledDays: days,
		IsActive:      true,
		IsCompulsory:  in.IsCompulsory,
		Color:         in.Color,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Validate(); err != nil {
		return models.Habit{}, err
	}

	if err := s.store.AddHabit(ctx, h); err != nil {
		return models.Habit{}, storageErr("add habit", err)
	}
	logger.Info("Created habit", "habitId", h.ID, "title", h.Title)

	if err := s.propagate(ctx, h.ID, appendEntry(h)); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// ListHabits returns habits newest first. Inactive habits are included only
// when asked for.
func (s *Service) ListHabits(ctx context.Context, includeInactive bool) ([]models.Habit, error) {
	habits, err := s.store.ListHabits(ctx, !includeInactive)
	if err != nil {
		return nil, storageErr("list habits", err)
	}
	for i, j := 0, len(habits)-1; i < j; i, j = i+1, j-1 {
		habits[i], habits[j] = habits[j], habits[i]
	}
	return habits, nil
}

func (s *Service) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	h, err := s.store.GetHabit(ctx, id)
	if err != nil {
		return models.Habit{}, storageErr("habit "+id, err)
	}
	return h, nil
}

// UpdateHabit applies patch and mirrors the change into the current week.
// Deactivating drops the habit's entry; reactivating adds a fresh one.
func (s *Service) UpdateHabit(ctx context.Context, id string, patch models.HabitPatch) (models.Habit, error) {
	h, err := s.GetHabit(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}
	wasActive := h.IsActive

	patch.Apply(&h)
	if err := h.Validate(); err != nil {
		return models.Habit{}, err
	}
	h.UpdatedAt = s.cal.Now().UTC()

	if err := s.store.UpdateHabit(ctx, h); err != nil {
		return models.Habit{}, storageErr("update habit", err)
	}
	logger.Info("Updated habit", "habitId", h.ID)

	var fn func(*models.Week) error
	switch {
	case h.IsActive && wasActive:
		fn = refreshEntry(h)
	case h.IsActive:
		fn = appendEntry(h)
	case wasActive:
		fn = removeEntry(h.ID)
	default:
		return h, nil
	}
	if err := s.propagate(ctx, h.ID, fn); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// DeleteHabit deactivates the habit and removes it from the current week.
// Past weeks keep their entries.
func (s *Service) DeleteHabit(ctx context.Context, id string) error {
	h, err := s.GetHabit(ctx, id)
	if err != nil {
		return err
	}

	if h.IsActive {
		h.IsActive = false
		h.UpdatedAt = s.cal.Now().UTC()
		if err := s.store.UpdateHabit(ctx, h); err != nil {
			return storageErr("deactivate habit", err)
		}
		logger.Info("Deactivated habit", "habitId", h.ID)
	}

	return s.propagate(ctx, h.ID, removeEntry(h.ID))
}
