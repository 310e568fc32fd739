// Package storagetest holds the behaviour every storage.Provider must share.
// Driver packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/storage"
)

// Factory returns an initialised, empty provider. Cleanup is the caller's job.
type Factory func(t *testing.T) storage.Provider

// Run executes the provider contract against fresh stores from newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Provider)
	}{
		{"HabitRoundTrip", testHabitRoundTrip},
		{"HabitOrderAndFilter", testHabitOrderAndFilter},
		{"HabitNotFound", testHabitNotFound},
		{"CreateWeekMovesCurrentFlag", testCreateWeekMovesCurrentFlag},
		{"CreateWeekRejectsDuplicate", testCreateWeekRejectsDuplicate},
		{"SaveWeekCompareAndSwap", testSaveWeekCompareAndSwap},
		{"StaleSaveAfterRollover", testStaleSaveAfterRollover},
		{"ListWeeksPaging", testListWeeksPaging},
		{"WeeksBetween", testWeeksBetween},
		{"ImportWeek", testImportWeek},
		{"MarkCurrentRepairsUnflaggedWeek", testMarkCurrentRepairsUnflaggedWeek},
		{"MarkCurrentWithNoCurrentWeek", testMarkCurrentWithNoCurrentWeek},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewWeek builds a week starting on the given Sunday.
func NewWeek(id string, start time.Time, entries ...models.WeekHabitEntry) models.Week {
	if entries == nil {
		entries = []models.WeekHabitEntry{}
	}
	return models.Week{
		WeekID:    id,
		WeekStart: start,
		WeekEnd:   start.AddDate(0, 0, 6).Add(24*time.Hour - time.Millisecond),
		Habits:    entries,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// NewHabit builds an active habit with the given id and schedule.
func NewHabit(id, title string, days ...models.Weekday) models.Habit {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.Habit{
		ID:            id,
		Title:         title,
		ScheduledDays: models.Days(days),
		IsActive:      true,
		Color:         "#0ea5e9",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func testHabitRoundTrip(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	h := NewHabit("h1", "Read", models.Monday, models.Wednesday, models.Friday)
	h.IsCompulsory = true

	if err := s.AddHabit(ctx, h); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	got, err := s.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.Title != "Read" || !got.IsActive || !got.IsCompulsory || got.Color != "#0ea5e9" {
		t.Errorf("unexpected habit %+v", got)
	}
	if len(got.ScheduledDays) != 3 || got.ScheduledDays[2] != models.Friday {
		t.Errorf("unexpected days %v", got.ScheduledDays)
	}
	if !got.CreatedAt.Equal(h.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, h.CreatedAt)
	}

	got.Title = "Read more"
	got.IsActive = false
	if err := s.UpdateHabit(ctx, got); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	again, err := s.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if again.Title != "Read more" || again.IsActive {
		t.Errorf("update not persisted: %+v", again)
	}
}

func testHabitOrderAndFilter(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	for _, h := range []models.Habit{
		NewHabit("c", "Third", models.Sunday),
		NewHabit("a", "First", models.Monday),
		NewHabit("b", "Second", models.Tuesday),
	} {
		if err := s.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
	}

	inactive, _ := s.GetHabit(ctx, "a")
	inactive.IsActive = false
	if err := s.UpdateHabit(ctx, inactive); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}

	all, err := s.ListHabits(ctx, false)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[1].ID != "a" || all[2].ID != "b" {
		t.Errorf("expected insertion order c,a,b got %+v", all)
	}

	active, err := s.ListHabits(ctx, true)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(active) != 2 || active[0].ID != "c" || active[1].ID != "b" {
		t.Errorf("expected active c,b got %+v", active)
	}

	n, err := s.CountHabits(ctx, true)
	if err != nil || n != 2 {
		t.Errorf("CountHabits(true) = %d, %v; want 2", n, err)
	}
	n, err = s.CountHabits(ctx, false)
	if err != nil || n != 3 {
		t.Errorf("CountHabits(false) = %d, %v; want 3", n, err)
	}
}

func testHabitNotFound(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if _, err := s.GetHabit(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetHabit error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateHabit(ctx, NewHabit("missing", "x", models.Monday)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateHabit error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetCurrentWeek(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetCurrentWeek error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetWeek(ctx, "2026-W01"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetWeek error = %v, want ErrNotFound", err)
	}
}

func testCreateWeekMovesCurrentFlag(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	var e models.WeekHabitEntry
	e.HabitID = "h1"
	e.Title = "Read"
	e.ScheduledDays = models.Days{models.Monday}
	e.Completion.Set(models.Monday, true)

	first, err := s.CreateWeek(ctx, NewWeek("2026-W01", civil(2025, 12, 28), e))
	if err != nil {
		t.Fatalf("CreateWeek failed: %v", err)
	}
	if !first.IsCurrent || first.Version == 0 {
		t.Errorf("expected current week with version, got %+v", first)
	}

	if _, err := s.CreateWeek(ctx, NewWeek("2026-W02", civil(2026, 1, 4))); err != nil {
		t.Fatalf("CreateWeek failed: %v", err)
	}

	current, err := s.GetCurrentWeek(ctx)
	if err != nil {
		t.Fatalf("GetCurrentWeek failed: %v", err)
	}
	if current.WeekID != "2026-W02" {
		t.Errorf("expected 2026-W02 current, got %s", current.WeekID)
	}

	old, err := s.GetWeek(ctx, "2026-W01")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if old.IsCurrent {
		t.Error("previous week must no longer be current")
	}
	if !old.WeekStart.Equal(civil(2025, 12, 28)) {
		t.Errorf("week start = %v", old.WeekStart)
	}
	if !old.WeekEnd.Equal(civil(2026, 1, 3).Add(24*time.Hour - time.Millisecond)) {
		t.Errorf("week end = %v", old.WeekEnd)
	}
	if len(old.Habits) != 1 || !old.Habits[0].Completion.Get(models.Monday) {
		t.Errorf("entries not preserved: %+v", old.Habits)
	}
}

func testCreateWeekRejectsDuplicate(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if _, err := s.CreateWeek(ctx, NewWeek("2026-W02", civil(2026, 1, 4))); err != nil {
		t.Fatalf("CreateWeek failed: %v", err)
	}

	_, err := s.CreateWeek(ctx, NewWeek("2026-W02", civil(2026, 1, 4)))
	if !errors.Is(err, storage.ErrDuplicateWeek) {
		t.Fatalf("expected ErrDuplicateWeek, got %v", err)
	}
	_, err = s.CreateWeek(ctx, NewWeek("other-id", civil(2026, 1, 4)))
	if !errors.Is(err, storage.ErrDuplicateWeek) {
		t.Fatalf("expected ErrDuplicateWeek on weekStart clash, got %v", err)
	}

	current, err := s.GetCurrentWeek(ctx)
	if err != nil {
		t.Fatalf("current flag lost after duplicate: %v", err)
	}
	if current.WeekID != "2026-W02" {
		t.Errorf("unexpected current week %s", current.WeekID)
	}
	n, err := s.CountWeeks(ctx, false)
	if err != nil || n != 1 {
		t.Errorf("CountWeeks = %d, %v; want 1", n, err)
	}
}

func testSaveWeekCompareAndSwap(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	e := models.WeekHabitEntry{HabitID: "h1", Title: "Read", ScheduledDays: models.Days{models.Monday}}
	w, err := s.CreateWeek(ctx, NewWeek("2026-W02", civil(2026, 1, 4), e))
	if err != nil {
		t.Fatalf("CreateWeek failed: %v", err)
	}

	stale := w.Clone()

	w.Habits[0].Completion.Set(models.Monday, true)
	w.Progress = 100
	saved, err := s.SaveWeek(ctx, w)
	if err != nil {
		t.Fatalf("SaveWeek failed: %v", err)
	}
	if saved.Version != w.Version+1 {
		t.Errorf("expected version %d, got %d", w.Version+1, saved.Version)
	}

	if _, err := s.SaveWeek(ctx, stale); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict for stale save, got %v", err)
	}

	got, err := s.GetWeek(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if got.Progress != 100 || !got.Habits[0].Completion.Get(models.Monday) || got.Version != saved.Version {
		t.Errorf("unexpected stored week %+v", got)
	}

	missing := NewWeek("1999-W01", civil(1998, 12, 27))
	if _, err := s.SaveWeek(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testStaleSaveAfterRollover(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	old, err := s.CreateWeek(ctx, NewWeek("2026-W02", civil(2026, 1, 4)))
	if err != nil {
		t.Fatalf("CreateWeek failed: %v", err)
	}
	if _, err := s.CreateWeek(ctx, NewWeek("2026-W03", civil(2026, 1, 11))); err != nil {
		t.Fatalf("CreateWeek failed: %v", err)
	}

	if _, err := s.SaveWeek(ctx, old); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("a save against the replaced current week must conflict, got %v", err)
	}
}

func testListWeeksPaging(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	start := civil(2026, 1, 4)
	ids := []string{"2026-W02", "2026-W03", "2026-W04", "2026-W05"}
	for i, id := range ids {
		if _, err := s.CreateWeek(ctx, NewWeek(id, start.AddDate(0, 0, 7*i))); err != nil {
			t.Fatalf("CreateWeek %s failed: %v", id, err)
		}
	}

	past, err := s.ListWeeks(ctx, storage.WeekQuery{PastOnly: true})
	if err != nil {
		t.Fatalf("ListWeeks failed: %v", err)
	}
	if len(past) != 3 || past[0].WeekID != "2026-W04" || past[2].WeekID != "2026-W02" {
		t.Errorf("unexpected past weeks %v", weekIDs(past))
	}

	page, err := s.ListWeeks(ctx, storage.WeekQuery{PastOnly: true, Skip: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ListWeeks failed: %v", err)
	}
	if len(page) != 1 || page[0].WeekID != "2026-W03" {
		t.Errorf("unexpected page %v", weekIDs(page))
	}

	all, err := s.ListWeeks(ctx, storage.WeekQuery{Limit: 2})
	if err != nil {
		t.Fatalf("ListWeeks failed: %v", err)
	}
	if len(all) != 2 || all[0].WeekID != "2026-W05" || !all[0].IsCurrent {
		t.Errorf("unexpected weeks %v", weekIDs(all))
	}

	if n, err := s.CountWeeks(ctx, true); err != nil || n != 3 {
		t.Errorf("CountWeeks(true) = %d, %v; want 3", n, err)
	}
	if n, err := s.CountWeeks(ctx, false); err != nil || n != 4 {
		t.Errorf("CountWeeks(false) = %d, %v; want 4", n, err)
	}
}

func testWeeksBetween(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	starts := []time.Time{civil(2025, 12, 21), civil(2025, 12, 28), civil(2026, 1, 25), civil(2026, 2, 1)}
	for i, st := range starts {
		if _, err := s.CreateWeek(ctx, NewWeek(st.Format("2006-01-02")+"-"+string(rune('a'+i)), st)); err != nil {
			t.Fatalf("CreateWeek failed: %v", err)
		}
	}

	// The January 2026 grid spans Dec 28 - Jan 31.
	weeks, err := s.WeeksBetween(ctx, civil(2025, 12, 28), civil(2026, 1, 31))
	if err != nil {
		t.Fatalf("WeeksBetween failed: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %v", weekIDs(weeks))
	}
	if !weeks[0].WeekStart.Equal(civil(2025, 12, 28)) || !weeks[1].WeekStart.Equal(civil(2026, 1, 25)) {
		t.Errorf("unexpected weeks %v", weekIDs(weeks))
	}

	// A range starting mid-week still includes the week covering it.
	weeks, err = s.WeeksBetween(ctx, civil(2025, 12, 31), civil(2025, 12, 31))
	if err != nil {
		t.Fatalf("WeeksBetween failed: %v", err)
	}
	if len(weeks) != 1 || !weeks[0].WeekStart.Equal(civil(2025, 12, 28)) {
		t.Errorf("unexpected weeks %v", weekIDs(weeks))
	}
}

func testImportWeek(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	w := NewWeek("2026-W02", civil(2026, 1, 4))
	w.Progress = 40
	if err := s.ImportWeek(ctx, w); err != nil {
		t.Fatalf("ImportWeek failed: %v", err)
	}
	if err := s.ImportWeek(ctx, w); !errors.Is(err, storage.ErrDuplicateWeek) {
		t.Errorf("expected ErrDuplicateWeek, got %v", err)
	}

	got, err := s.GetWeek(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if got.IsCurrent || got.Progress != 40 {
		t.Errorf("unexpected imported week %+v", got)
	}
	if _, err := s.GetCurrentWeek(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("importing a past week must not create a current week, got %v", err)
	}
}

// An unflagged week stands in for a create that stored the document but
// failed before moving the flag.
func testMarkCurrentRepairsUnflaggedWeek(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if _, err := s.CreateWeek(ctx, NewWeek("2026-W01", civil(2025, 12, 28))); err != nil {
		t.Fatalf("CreateWeek failed: %v", err)
	}
	if err := s.ImportWeek(ctx, NewWeek("2026-W02", civil(2026, 1, 4))); err != nil {
		t.Fatalf("ImportWeek failed: %v", err)
	}
	before, err := s.GetWeek(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}

	got, err := s.MarkCurrent(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("MarkCurrent failed: %v", err)
	}
	if !got.IsCurrent || got.Version <= before.Version {
		t.Errorf("expected flagged week with bumped version, got %+v", got)
	}

	current, err := s.GetCurrentWeek(ctx)
	if err != nil {
		t.Fatalf("GetCurrentWeek failed: %v", err)
	}
	if current.WeekID != "2026-W02" {
		t.Errorf("expected 2026-W02 current, got %s", current.WeekID)
	}
	old, err := s.GetWeek(ctx, "2026-W01")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if old.IsCurrent {
		t.Error("previous week must no longer be current")
	}

	again, err := s.MarkCurrent(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("second MarkCurrent failed: %v", err)
	}
	if !again.IsCurrent || again.Version != got.Version {
		t.Errorf("MarkCurrent on the current week must be a no-op, got %+v", again)
	}

	if _, err := s.MarkCurrent(ctx, "2026-W09"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if current, err := s.GetCurrentWeek(ctx); err != nil || current.WeekID != "2026-W02" {
		t.Errorf("failed MarkCurrent moved the flag: %v, %v", current.WeekID, err)
	}
}

func testMarkCurrentWithNoCurrentWeek(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if err := s.ImportWeek(ctx, NewWeek("2026-W02", civil(2026, 1, 4))); err != nil {
		t.Fatalf("ImportWeek failed: %v", err)
	}
	if _, err := s.GetCurrentWeek(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no current week, got %v", err)
	}

	if _, err := s.MarkCurrent(ctx, "2026-W02"); err != nil {
		t.Fatalf("MarkCurrent failed: %v", err)
	}
	current, err := s.GetCurrentWeek(ctx)
	if err != nil {
		t.Fatalf("GetCurrentWeek failed: %v", err)
	}
	if current.WeekID != "2026-W02" {
		t.Errorf("expected 2026-W02 current, got %s", current.WeekID)
	}
	n, err := s.CountWeeks(ctx, false)
	if err != nil || n != 1 {
		t.Errorf("CountWeeks = %d, %v; want 1", n, err)
	}
}

func weekIDs(weeks []models.Week) []string {
	ids := make([]string, len(weeks))
	for i, w := range weeks {
		ids[i] = w.WeekID
	}
	return ids
}
