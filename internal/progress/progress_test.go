package progress

import (
	"testing"
	"time"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/models"
)

func entry(id string, days models.Days, done ...models.Weekday) models.WeekHabitEntry {
	e := models.WeekHabitEntry{HabitID: id, Title: id, ScheduledDays: days}
	for _, d := range done {
		e.Completion.Set(d, true)
	}
	return e
}

func TestPercent(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds up
		{3, 8, 38}, // 37.5 rounds up
		{5, 5, 100},
	}

	for _, tt := range tests {
		if got := Percent(tt.completed, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestCompute(t *testing.T) {
	mwf := models.Days{models.Monday, models.Wednesday, models.Friday}

	tests := []struct {
		name    string
		entries []models.WeekHabitEntry
		want    int
	}{
		{"no entries", nil, 0},
		{"nothing done", []models.WeekHabitEntry{entry("a", mwf)}, 0},
		{"one of three", []models.WeekHabitEntry{entry("a", mwf, models.Monday)}, 33},
		{"all done", []models.WeekHabitEntry{entry("a", mwf, models.Monday, models.Wednesday, models.Friday)}, 100},
		{
			"unscheduled completion ignored",
			[]models.WeekHabitEntry{entry("a", models.Days{models.Monday}, models.Tuesday)},
			0,
		},
		{
			"across habits",
			[]models.WeekHabitEntry{
				entry("a", mwf, models.Monday),
				entry("b", models.Days{models.Sunday}, models.Sunday),
			},
			50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.entries); got != tt.want {
				t.Errorf("Compute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestForDate(t *testing.T) {
	week := models.Week{
		WeekID:    "2026-W02",
		WeekStart: calendar.WeekStart(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)),
		WeekEnd:   calendar.WeekEnd(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)),
		Habits: []models.WeekHabitEntry{
			entry("read", models.Days{models.Monday, models.Wednesday}, models.Monday),
			entry("run", models.Days{models.Monday}),
			entry("rest", models.Days{models.Sunday}),
		},
	}

	view := ForDate(week, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if view.DayName != "Mon" || view.Date != "2026-01-05" {
		t.Errorf("unexpected day %s %s", view.DayName, view.Date)
	}
	if view.TotalCount != 2 || view.CompletedCount != 1 || view.Progress != 50 {
		t.Errorf("unexpected counts %+v", view)
	}
	if view.Habits[0].HabitID != "read" || !view.Habits[0].Completed || view.Habits[1].Completed {
		t.Errorf("unexpected habits %+v", view.Habits)
	}

	empty := ForDate(week, time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC))
	if empty.TotalCount != 0 || empty.Progress != 0 || empty.Habits == nil {
		t.Errorf("expected empty non-nil view, got %+v", empty)
	}
}

func TestOverlay(t *testing.T) {
	start := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	week := models.Week{
		WeekStart: calendar.WeekStart(start),
		WeekEnd:   calendar.WeekEnd(start),
		Habits: []models.WeekHabitEntry{
			entry("read", models.Days{models.Monday, models.Tuesday}, models.Monday),
			entry("run", models.Days{models.Monday}, models.Monday),
		},
	}

	grid, err := calendar.MonthGrid(2026, 1, time.Time{})
	if err != nil {
		t.Fatalf("MonthGrid failed: %v", err)
	}
	rows := Overlay([]models.Week{week}, grid)
	if len(rows) != len(grid.Weeks) {
		t.Fatalf("expected %d rows, got %d", len(grid.Weeks), len(rows))
	}

	monday := rows[1][1]
	if monday.FullDate != "2026-01-05" {
		t.Fatalf("unexpected cell %s", monday.FullDate)
	}
	if !monday.HasHabits || monday.TotalCount != 2 || monday.CompletedCount != 2 || !monday.IsComplete {
		t.Errorf("unexpected monday cell %+v", monday)
	}

	tuesday := rows[1][2]
	if !tuesday.HasHabits || tuesday.IsComplete || tuesday.CompletedCount != 0 || tuesday.TotalCount != 1 {
		t.Errorf("unexpected tuesday cell %+v", tuesday)
	}

	outside := rows[2][1]
	if outside.HasHabits || outside.IsComplete {
		t.Errorf("cell outside week should be empty: %+v", outside)
	}
}
