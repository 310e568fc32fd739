package mongo

import (
	"time"

	"github.com/julianstephens/weeklit/internal/models"
)

type habitDoc struct {
	ID            string    `bson:"_id"`
	Seq           int64     `bson:"seq"`
	Title         string    `bson:"title"`
	ScheduledDays []string  `bson:"scheduledDays"`
	IsActive      bool      `bson:"isActive"`
	IsCompulsory  bool      `bson:"isCompulsory"`
	Color         string    `bson:"color"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

type entryDoc struct {
	HabitID       string          `bson:"habitId"`
	Title         string          `bson:"title"`
	ScheduledDays []string        `bson:"scheduledDays"`
	IsCompulsory  bool            `bson:"isCompulsory"`
	Color         string          `bson:"color"`
	Completion    map[string]bool `bson:"completion"`
}

type weekDoc struct {
	ID        string     `bson:"_id"`
	WeekStart time.Time  `bson:"weekStart"`
	WeekEnd   time.Time  `bson:"weekEnd"`
	Habits    []entryDoc `bson:"habits"`
	Progress  int        `bson:"progress"`
	IsCurrent bool       `bson:"isCurrent"`
	Version   int64      `bson:"version"`
	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

func toHabitDoc(h models.Habit, seq int64) habitDoc {
	return habitDoc{
		ID:            h.ID,
		Seq:           seq,
		Title:         h.Title,
		ScheduledDays: h.ScheduledDays.Strings(),
		IsActive:      h.IsActive,
		IsCompulsory:  h.IsCompulsory,
		Color:         h.Color,
		CreatedAt:     h.CreatedAt.UTC(),
		UpdatedAt:     h.UpdatedAt.UTC(),
	}
}

func (d habitDoc) model() (models.Habit, error) {
	days, err := models.ParseDays(d.ScheduledDays)
	if err != nil {
		return models.Habit{}, err
	}
	return models.Habit{
		ID:            d.ID,
		Title:         d.Title,
		ScheduledDays: days,
		IsActive:      d.IsActive,
		IsCompulsory:  d.IsCompulsory,
		Color:         d.Color,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}, nil
}

func toEntryDocs(entries []models.WeekHabitEntry) []entryDoc {
	docs := make([]entryDoc, len(entries))
	for i, e := range entries {
		docs[i] = entryDoc{
			HabitID:       e.HabitID,
			Title:         e.Title,
			ScheduledDays: e.ScheduledDays.Strings(),
			IsCompulsory:  e.IsCompulsory,
			Color:         e.Color,
			Completion:    e.Completion.Map(),
		}
	}
	return docs
}

func toWeekDoc(w models.Week) weekDoc {
	return weekDoc{
		ID:        w.WeekID,
		WeekStart: w.WeekStart.UTC(),
		WeekEnd:   w.WeekEnd.UTC(),
		Habits:    toEntryDocs(w.Habits),
		Progress:  w.Progress,
		IsCurrent: w.IsCurrent,
		Version:   w.Version,
		CreatedAt: w.CreatedAt.UTC(),
		UpdatedAt: w.UpdatedAt.UTC(),
	}
}

func (d weekDoc) model() (models.Week, error) {
	w := models.Week{
		WeekID:    d.ID,
		WeekStart: d.WeekStart.UTC(),
		WeekEnd:   d.WeekEnd.UTC(),
		Habits:    make([]models.WeekHabitEntry, 0, len(d.Habits)),
		Progress:  d.Progress,
		IsCurrent: d.IsCurrent,
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	for _, e := range d.Habits {
		days, err := models.ParseDays(e.ScheduledDays)
		if err != nil {
			return models.Week{}, err
		}
		completion, err := models.CompletionFromMap(e.Completion)
		if err != nil {
			return models.Week{}, err
		}
		w.Habits = append(w.Habits, models.WeekHabitEntry{
			HabitID:       e.HabitID,
			Title:         e.Title,
			ScheduledDays: days,
			IsCompulsory:  e.IsCompulsory,
			Color:         e.Color,
			Completion:    completion,
		})
	}
	return w, nil
}
