package tracker

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/storage"
	"github.com/julianstephens/weeklit/internal/storage/sqlite"
)

// Wednesday of 2026-W02 (Jan 4 - Jan 10).
var testNow = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc   *Service
	store *sqlite.Store
	now   *time.Time
}

func (e *testEnv) advance(d time.Duration) {
	*e.now = e.now.Add(d)
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := testNow
	cal := calendar.New(time.UTC).WithClock(func() time.Time { return now })
	return &testEnv{svc: NewService(store, cal), store: store, now: &now}
}

func mustCreate(t *testing.T, svc *Service, title string, days ...string) models.Habit {
	t.Helper()
	h, err := svc.CreateHabit(context.Background(), NewHabit{Title: title, ScheduledDays: days})
	if err != nil {
		t.Fatalf("CreateHabit(%s) failed: %v", title, err)
	}
	return h
}

func mustEnsure(t *testing.T, svc *Service) models.Week {
	t.Helper()
	w, err := svc.EnsureCurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("EnsureCurrentWeek failed: %v", err)
	}
	return w
}

func currentWeek(t *testing.T, store storage.Provider) models.Week {
	t.Helper()
	w, err := store.GetCurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentWeek failed: %v", err)
	}
	return w
}

func TestEnsureCurrentWeekIsIdempotent(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	mustCreate(t, env.svc, "Read", "Mon")

	first := mustEnsure(t, env.svc)
	second := mustEnsure(t, env.svc)

	if first.WeekID != "2026-W02" || second.WeekID != first.WeekID {
		t.Errorf("unexpected week ids %s, %s", first.WeekID, second.WeekID)
	}
	if second.Version != first.Version {
		t.Errorf("second call must not modify the week: versions %d, %d", first.Version, second.Version)
	}
	if !first.IsCurrent || first.Progress != 0 || len(first.Habits) != 1 {
		t.Errorf("unexpected week %+v", first)
	}
	if !first.WeekStart.Equal(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected week start %v", first.WeekStart)
	}
	for _, d := range models.AllWeekdays() {
		if first.Habits[0].Completion.Get(d) {
			t.Errorf("new entry must start incomplete, %s is set", d)
		}
	}

	n, err := env.store.CountWeeks(ctx, false)
	if err != nil || n != 1 {
		t.Errorf("CountWeeks = %d, %v; want 1", n, err)
	}
}

func TestReadScenario(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	mustEnsure(t, env.svc)

	read := mustCreate(t, env.svc, "Read", "Mon", "Wed", "Fri")

	res, err := env.svc.Toggle(ctx, read.ID, "Mon")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !res.Completed || res.Progress != 33 {
		t.Errorf("expected {true, 33}, got %+v", res)
	}

	_, err = env.svc.Toggle(ctx, read.ID, "Tue")
	if !stderrors.Is(err, errors.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if w := currentWeek(t, env.store); w.Progress != 33 || w.Habits[0].Completion.Get(models.Tuesday) {
		t.Errorf("rejected toggle must not change the week: %+v", w)
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	h := mustCreate(t, env.svc, "Run", "Sun", "Sat")
	mustEnsure(t, env.svc)

	first, err := env.svc.Toggle(ctx, h.ID, "Sat")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !first.Completed || first.Progress != 50 {
		t.Errorf("unexpected first toggle %+v", first)
	}

	second, err := env.svc.Toggle(ctx, h.ID, "Sat")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if second.Completed || second.Progress != 0 {
		t.Errorf("expected original state restored, got %+v", second)
	}
}

func TestTogglePreconditions(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	// No week yet: the day is checked before the week.
	if _, err := env.svc.Toggle(ctx, "any", "Funday"); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.svc.Toggle(ctx, "any", "Mon"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound without a current week, got %v", err)
	}

	mustEnsure(t, env.svc)
	if _, err := env.svc.Toggle(ctx, "missing", "Mon"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown habit, got %v", err)
	}
	if _, err := env.svc.Toggle(ctx, "", "Mon"); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty habit id, got %v", err)
	}
}

func TestRolloverSnapshotsActiveHabits(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	keep := mustCreate(t, env.svc, "Keep", "Mon")
	drop := mustCreate(t, env.svc, "Drop", "Mon")
	mustEnsure(t, env.svc)

	if _, err := env.svc.Toggle(ctx, keep.ID, "Mon"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if err := env.svc.DeleteHabit(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}

	env.advance(oneWeek)
	next := mustEnsure(t, env.svc)

	if next.WeekID != "2026-W03" || !next.IsCurrent {
		t.Fatalf("unexpected new week %+v", next)
	}
	if len(next.Habits) != 1 || next.Habits[0].HabitID != keep.ID {
		t.Errorf("new week must contain only active habits: %+v", next.Habits)
	}
	if next.Habits[0].Completion.Get(models.Monday) || next.Progress != 0 {
		t.Error("completion must not carry over into a new week")
	}

	old, err := env.store.GetWeek(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if old.IsCurrent {
		t.Error("previous week must no longer be current")
	}
	if old.Progress != 100 || len(old.Habits) != 1 {
		t.Errorf("previous week changed unexpectedly: %+v", old)
	}
}

func TestCreateHabitPropagation(t *testing.T) {
	env := setupTestService(t)

	// Without a current week creation simply stores the habit.
	early := mustCreate(t, env.svc, "Early", "Mon")
	mustEnsure(t, env.svc)

	late := mustCreate(t, env.svc, "Late", "Tue")
	w := currentWeek(t, env.store)
	if len(w.Habits) != 2 || w.Habits[0].HabitID != early.ID || w.Habits[1].HabitID != late.ID {
		t.Errorf("expected entries in insertion order, got %+v", w.Habits)
	}
	if late.Color != "#0ea5e9" || !late.IsActive || late.ID == "" {
		t.Errorf("unexpected defaults %+v", late)
	}
}

func TestCreateHabitValidation(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewHabit
	}{
		{"missing title", NewHabit{ScheduledDays: []string{"Mon"}}},
		{"missing days", NewHabit{Title: "Read"}},
		{"bad day", NewHabit{Title: "Read", ScheduledDays: []string{"Monday"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.CreateHabit(ctx, tt.in); !stderrors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if n, _ := env.store.CountHabits(ctx, false); n != 0 {
		t.Errorf("rejected habits must not be stored, found %d", n)
	}
}

func TestUpdateHabitPropagatesToCurrentWeekOnly(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	h := mustCreate(t, env.svc, "Read", "Mon", "Wed")
	mustEnsure(t, env.svc)
	if _, err := env.svc.Toggle(ctx, h.ID, "Mon"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	title := "Read fiction"
	days := models.Days{models.Monday, models.Wednesday, models.Friday, models.Saturday}
	color := "#ff0000"
	updated, err := env.svc.UpdateHabit(ctx, h.ID, models.HabitPatch{Title: &title, ScheduledDays: &days, Color: &color})
	if err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	if updated.Title != title || len(updated.ScheduledDays) != 4 {
		t.Errorf("unexpected habit %+v", updated)
	}

	w := currentWeek(t, env.store)
	e := w.Habits[0]
	if e.Title != title || e.Color != color || len(e.ScheduledDays) != 4 {
		t.Errorf("entry not refreshed: %+v", e)
	}
	if !e.Completion.Get(models.Monday) {
		t.Error("completion must survive a habit edit")
	}
	if w.Progress != 25 {
		t.Errorf("expected progress recomputed to 25, got %d", w.Progress)
	}

	// After rollover, edits no longer reach the old week.
	env.advance(oneWeek)
	mustEnsure(t, env.svc)
	other := "Read poetry"
	if _, err := env.svc.UpdateHabit(ctx, h.ID, models.HabitPatch{Title: &other}); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	old, err := env.store.GetWeek(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if old.Habits[0].Title != title {
		t.Errorf("past week must keep its snapshot, got %q", old.Habits[0].Title)
	}
	if cur := currentWeek(t, env.store); cur.Habits[0].Title != other {
		t.Errorf("current week not refreshed, got %q", cur.Habits[0].Title)
	}
}

func TestUpdateHabitErrors(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	if _, err := env.svc.UpdateHabit(ctx, "missing", models.HabitPatch{}); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	h := mustCreate(t, env.svc, "Read", "Mon")
	empty := models.Days{}
	if _, err := env.svc.UpdateHabit(ctx, h.ID, models.HabitPatch{ScheduledDays: &empty}); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestActiveFlagPropagation(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	h := mustCreate(t, env.svc, "Read", "Mon")
	mustEnsure(t, env.svc)

	off := false
	if _, err := env.svc.UpdateHabit(ctx, h.ID, models.HabitPatch{IsActive: &off}); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	if w := currentWeek(t, env.store); len(w.Habits) != 0 {
		t.Errorf("deactivated habit must leave the current week: %+v", w.Habits)
	}

	on := true
	if _, err := env.svc.UpdateHabit(ctx, h.ID, models.HabitPatch{IsActive: &on}); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	if w := currentWeek(t, env.store); len(w.Habits) != 1 || w.Habits[0].HabitID != h.ID {
		t.Errorf("reactivated habit must rejoin the current week: %+v", w.Habits)
	}
}

func TestDeleteHabit(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	a := mustCreate(t, env.svc, "A", "Mon")
	b := mustCreate(t, env.svc, "B", "Mon")
	mustEnsure(t, env.svc)
	if _, err := env.svc.Toggle(ctx, a.ID, "Mon"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if w := currentWeek(t, env.store); w.Progress != 50 {
		t.Fatalf("expected 50, got %d", w.Progress)
	}

	if err := env.svc.DeleteHabit(ctx, b.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	w := currentWeek(t, env.store)
	if len(w.Habits) != 1 || w.Progress != 100 {
		t.Errorf("expected only A at 100%%, got %+v", w)
	}

	stored, err := env.store.GetHabit(ctx, b.ID)
	if err != nil {
		t.Fatalf("soft-deleted habit must remain stored: %v", err)
	}
	if stored.IsActive {
		t.Error("deleted habit must be inactive")
	}

	if err := env.svc.DeleteHabit(ctx, b.ID); err != nil {
		t.Errorf("deleting twice should succeed, got %v", err)
	}
	if err := env.svc.DeleteHabit(ctx, "missing"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListHabitsNewestFirst(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	a := mustCreate(t, env.svc, "A", "Mon")
	b := mustCreate(t, env.svc, "B", "Mon")
	c := mustCreate(t, env.svc, "C", "Mon")
	if err := env.svc.DeleteHabit(ctx, b.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}

	active, err := env.svc.ListHabits(ctx, false)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(active) != 2 || active[0].ID != c.ID || active[1].ID != a.ID {
		t.Errorf("expected C, A got %+v", active)
	}

	all, err := env.svc.ListHabits(ctx, true)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(all) != 3 || all[1].ID != b.ID {
		t.Errorf("expected C, B, A got %+v", all)
	}
}

// racingStore simulates another process creating the week between our read
// and our insert.
type racingStore struct {
	*sqlite.Store
}

func (r racingStore) CreateWeek(ctx context.Context, w models.Week) (models.Week, error) {
	if _, err := r.Store.CreateWeek(ctx, w); err != nil {
		return models.Week{}, err
	}
	return models.Week{}, storage.ErrDuplicateWeek
}

func TestEnsureCurrentWeekLosesRace(t *testing.T) {
	env := setupTestService(t)
	svc := NewService(racingStore{env.store}, env.svc.Calendar())

	w, err := svc.EnsureCurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("EnsureCurrentWeek failed: %v", err)
	}
	if w.WeekID != "2026-W02" {
		t.Errorf("expected the concurrently created week, got %+v", w)
	}
	if n, _ := env.store.CountWeeks(context.Background(), false); n != 1 {
		t.Errorf("expected exactly one week, got %d", n)
	}
}

// interleavingStore lets another writer toggle a different habit right
// before our first save lands.
type interleavingStore struct {
	*sqlite.Store
	other string
	fired bool
}

func (s *interleavingStore) SaveWeek(ctx context.Context, w models.Week) (models.Week, error) {
	if !s.fired {
		s.fired = true
		cur, err := s.Store.GetCurrentWeek(ctx)
		if err != nil {
			return models.Week{}, err
		}
		cur.Habits[cur.EntryIndex(s.other)].Completion.Set(models.Monday, true)
		if _, err := s.Store.SaveWeek(ctx, cur); err != nil {
			return models.Week{}, err
		}
	}
	return s.Store.SaveWeek(ctx, w)
}

func TestToggleRetriesOnConflict(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	a := mustCreate(t, env.svc, "A", "Mon")
	b := mustCreate(t, env.svc, "B", "Mon")
	mustEnsure(t, env.svc)

	store := &interleavingStore{Store: env.store, other: b.ID}
	svc := NewService(store, env.svc.Calendar())

	res, err := svc.Toggle(ctx, a.ID, "Mon")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !res.Completed || res.Progress != 100 {
		t.Errorf("expected both toggles to land, got %+v", res)
	}

	w := currentWeek(t, env.store)
	if !w.Habits[0].Completion.Get(models.Monday) || !w.Habits[1].Completion.Get(models.Monday) {
		t.Errorf("a concurrent toggle was lost: %+v", w.Habits)
	}
}

// unflaggedStore stores the new week but fails before it becomes current,
// the way a create does when the connection drops between insert and flag.
type unflaggedStore struct {
	*sqlite.Store
}

func (u unflaggedStore) CreateWeek(ctx context.Context, w models.Week) (models.Week, error) {
	w.IsCurrent = false
	if err := u.Store.ImportWeek(ctx, w); err != nil {
		return models.Week{}, err
	}
	return models.Week{}, stderrors.New("connection reset")
}

func TestToggleRepairsUnflaggedWeek(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	h := mustCreate(t, env.svc, "Read", "Mon")

	broken := NewService(unflaggedStore{env.store}, env.svc.Calendar())
	if _, err := broken.EnsureCurrentWeek(ctx); !stderrors.Is(err, errors.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := env.store.GetCurrentWeek(ctx); !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no current week after the failed create, got %v", err)
	}

	res, err := env.svc.Toggle(ctx, h.ID, "Mon")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if res.WeekID != "2026-W02" || !res.Completed {
		t.Errorf("unexpected toggle result %+v", res)
	}
	if w := currentWeek(t, env.store); w.WeekID != "2026-W02" || w.Progress != 100 {
		t.Errorf("unexpected current week %+v", w)
	}
}

func TestEnsureCurrentWeekRepairsUnflaggedWeek(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	mustCreate(t, env.svc, "Read", "Mon")

	// Last week is still flagged; this week's create failed halfway.
	mustEnsure(t, env.svc)
	env.advance(oneWeek)
	broken := NewService(unflaggedStore{env.store}, env.svc.Calendar())
	if _, err := broken.EnsureCurrentWeek(ctx); err == nil {
		t.Fatal("expected the broken create to fail")
	}

	w := mustEnsure(t, env.svc)
	if w.WeekID != "2026-W03" || !w.IsCurrent || len(w.Habits) != 1 {
		t.Errorf("unexpected week %+v", w)
	}
	if cur := currentWeek(t, env.store); cur.WeekID != "2026-W03" {
		t.Errorf("expected 2026-W03 current, got %s", cur.WeekID)
	}
	if n, _ := env.store.CountWeeks(ctx, false); n != 2 {
		t.Errorf("expected two weeks, got %d", n)
	}
	if n, _ := env.store.CountWeeks(ctx, true); n != 1 {
		t.Errorf("expected one past week, got %d", n)
	}
}

// failingSaveStore rejects every week save, so catalog changes are stored
// but never reach the current week.
type failingSaveStore struct {
	*sqlite.Store
}

func (failingSaveStore) SaveWeek(context.Context, models.Week) (models.Week, error) {
	return models.Week{}, stderrors.New("disk full")
}

func TestEnsureCurrentWeekReconcilesFailedPropagation(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	keep := mustCreate(t, env.svc, "Read", "Mon")
	drop := mustCreate(t, env.svc, "Stretch", "Mon")
	mustEnsure(t, env.svc)
	if _, err := env.svc.Toggle(ctx, keep.ID, "Mon"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	broken := NewService(failingSaveStore{env.store}, env.svc.Calendar())
	title := "Read a book"
	if _, err := broken.UpdateHabit(ctx, keep.ID, models.HabitPatch{Title: &title}); err == nil {
		t.Fatal("expected propagation to fail")
	}
	if err := broken.DeleteHabit(ctx, drop.ID); err == nil {
		t.Fatal("expected propagation to fail")
	}
	if _, err := broken.CreateHabit(ctx, NewHabit{Title: "Walk", ScheduledDays: []string{"Tue"}}); err == nil {
		t.Fatal("expected propagation to fail")
	}

	stale := currentWeek(t, env.store)
	if len(stale.Habits) != 2 || stale.Habits[0].Title != "Read" {
		t.Fatalf("failed propagation should leave the week untouched, got %+v", stale.Habits)
	}

	w := mustEnsure(t, env.svc)
	if len(w.Habits) != 2 {
		t.Fatalf("expected Read a book and Walk, got %+v", w.Habits)
	}
	if w.Habits[0].HabitID != keep.ID || w.Habits[0].Title != "Read a book" {
		t.Errorf("stale entry not refreshed: %+v", w.Habits[0])
	}
	if !w.Habits[0].Completion.Get(models.Monday) {
		t.Error("reconciling must keep completion")
	}
	if w.Habits[1].Title != "Walk" || w.EntryIndex(drop.ID) >= 0 {
		t.Errorf("unexpected entries %+v", w.Habits)
	}
	// Read is done on its only day, Walk is not.
	if w.Progress != 50 {
		t.Errorf("progress = %d, want 50", w.Progress)
	}

	again := mustEnsure(t, env.svc)
	if again.Version != w.Version {
		t.Errorf("reconciling a healthy week must not write, version %d -> %d", w.Version, again.Version)
	}
}
