package tracker

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/storage/sqlite"
)

const oneWeek = 7 * 24 * time.Hour

// seedThreeWeeks leaves W02 at 100%, W03 at 0% and W04 current at 100%.
func seedThreeWeeks(t *testing.T, env *testEnv) string {
	t.Helper()
	ctx := context.Background()

	h := mustCreate(t, env.svc, "Read", "Mon")
	mustEnsure(t, env.svc)
	if _, err := env.svc.Toggle(ctx, h.ID, "Mon"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	env.advance(oneWeek)
	mustEnsure(t, env.svc)
	env.advance(oneWeek)
	mustEnsure(t, env.svc)
	if _, err := env.svc.Toggle(ctx, h.ID, "Mon"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	return h.ID
}

func TestCurrentWeekView(t *testing.T) {
	env := setupTestService(t)
	mustCreate(t, env.svc, "Read", "Mon", "Wed")

	v, err := env.svc.CurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("CurrentWeek failed: %v", err)
	}
	if v.WeekID != "2026-W02" || v.Today != "Wed" || v.TodayDate != "2026-01-07" {
		t.Errorf("unexpected view %+v", v)
	}
	if v.WeekRange != "Jan 4, 2026 - Jan 10, 2026" {
		t.Errorf("unexpected range %q", v.WeekRange)
	}
	if v.WeekDates["Sun"] != "2026-01-04" || v.WeekDates["Sat"] != "2026-01-10" {
		t.Errorf("unexpected dates %v", v.WeekDates)
	}
	if len(v.DaysOrder) != 7 || v.DaysOrder[0] != "Sun" || len(v.Habits) != 1 {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestHistoryPaging(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	seedThreeWeeks(t, env)

	tests := []struct {
		name    string
		skip    int
		limit   int
		ids     []string
		hasMore bool
	}{
		{"first page", 0, 1, []string{"2026-W03"}, true},
		{"second page", 1, 1, []string{"2026-W02"}, false},
		{"defaults", -5, 0, []string{"2026-W03", "2026-W02"}, false},
		{"past the end", 10, 5, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.svc.History(ctx, tt.skip, tt.limit)
			if err != nil {
				t.Fatalf("History failed: %v", err)
			}
			if page.Total != 2 || page.HasMore != tt.hasMore {
				t.Errorf("got total=%d hasMore=%v", page.Total, page.HasMore)
			}
			if len(page.Weeks) != len(tt.ids) {
				t.Fatalf("expected %d weeks, got %d", len(tt.ids), len(page.Weeks))
			}
			for i, id := range tt.ids {
				if page.Weeks[i].WeekID != id || page.Weeks[i].IsCurrent {
					t.Errorf("week %d: got %s current=%v", i, page.Weeks[i].WeekID, page.Weeks[i].IsCurrent)
				}
			}
		})
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		skip, limit         int
		wantSkip, wantLimit int
	}{
		{0, 0, 0, 10},
		{-1, 5, 0, 5},
		{3, 1000, 3, 100},
	}
	for _, tt := range tests {
		skip, limit := ClampPage(tt.skip, tt.limit)
		if skip != tt.wantSkip || limit != tt.wantLimit {
			t.Errorf("ClampPage(%d, %d) = %d, %d", tt.skip, tt.limit, skip, limit)
		}
	}
}

func TestStats(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	empty, err := env.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if empty.TotalWeeks != 0 || empty.AvgProgress != 0 || empty.WeeklyProgress == nil {
		t.Errorf("unexpected empty stats %+v", empty)
	}

	seedThreeWeeks(t, env)
	st, err := env.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.TotalWeeks != 3 || st.TotalHabits != 1 || st.CurrentProgress != 100 {
		t.Errorf("unexpected stats %+v", st)
	}
	// (100 + 0 + 100) / 3 = 66.67
	if st.AvgProgress != 67 {
		t.Errorf("expected avg 67, got %d", st.AvgProgress)
	}
	want := []string{"2026-W02", "2026-W03", "2026-W04"}
	if len(st.WeeklyProgress) != len(want) {
		t.Fatalf("unexpected series %+v", st.WeeklyProgress)
	}
	for i, id := range want {
		if st.WeeklyProgress[i].WeekID != id {
			t.Errorf("series[%d] = %s, want %s", i, st.WeeklyProgress[i].WeekID, id)
		}
	}
}

func TestWeekDetail(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	seedThreeWeeks(t, env)

	w, err := env.svc.Week(ctx, "2026-W02")
	if err != nil {
		t.Fatalf("Week failed: %v", err)
	}
	if w.IsCurrent || w.Progress != 100 || w.WeekRange != "Jan 4, 2026 - Jan 10, 2026" {
		t.Errorf("unexpected detail %+v", w)
	}

	cur, err := env.svc.Week(ctx, "2026-W04")
	if err != nil {
		t.Fatalf("Week failed: %v", err)
	}
	if !cur.IsCurrent {
		t.Error("expected W04 to be current")
	}

	if _, err := env.svc.Week(ctx, "2099-W01"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDateView(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	id := seedThreeWeeks(t, env)

	v, err := env.svc.Date(ctx, "2026-01-05")
	if err != nil {
		t.Fatalf("Date failed: %v", err)
	}
	if v.WeekID != "2026-W02" || v.DayName != "Mon" || v.IsCurrentWeek || v.Message != "" {
		t.Errorf("unexpected view %+v", v)
	}
	if len(v.Habits) != 1 || v.Habits[0].HabitID != id || !v.Habits[0].Completed || v.Progress != 100 {
		t.Errorf("unexpected habits %+v", v.Habits)
	}

	tue, err := env.svc.Date(ctx, "2026-01-06")
	if err != nil {
		t.Fatalf("Date failed: %v", err)
	}
	if len(tue.Habits) != 0 || tue.TotalCount != 0 || tue.Progress != 0 {
		t.Errorf("expected nothing scheduled on Tuesday, got %+v", tue)
	}

	none, err := env.svc.Date(ctx, "2025-06-01")
	if err != nil {
		t.Fatalf("Date failed: %v", err)
	}
	if none.Message != NoDataMessage || none.Habits == nil || len(none.Habits) != 0 {
		t.Errorf("unexpected empty view %+v", none)
	}

	if _, err := env.svc.Date(ctx, "2026-13-01"); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMonthOverlay(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	seedThreeWeeks(t, env)

	v, err := env.svc.Month(ctx, 2026, 1)
	if err != nil {
		t.Fatalf("Month failed: %v", err)
	}
	if v.MonthName != "January" || len(v.Weeks) != 5 || v.Today != "2026-01-21" {
		t.Fatalf("unexpected view %+v", v)
	}

	// Row 0 is Dec 28 - Jan 3, which was never tracked.
	if v.Weeks[0][1].HasHabits {
		t.Error("untracked week must have no habits")
	}
	jan5 := v.Weeks[1][1]
	if jan5.FullDate != "2026-01-05" || !jan5.HasHabits || !jan5.IsComplete || jan5.CompletedCount != 1 {
		t.Errorf("unexpected Jan 5 cell %+v", jan5)
	}
	jan12 := v.Weeks[2][1]
	if !jan12.HasHabits || jan12.IsComplete || jan12.TotalCount != 1 {
		t.Errorf("unexpected Jan 12 cell %+v", jan12)
	}
	if v.Weeks[1][2].HasHabits {
		t.Error("Tuesday has nothing scheduled")
	}
	if !v.Weeks[3][3].IsToday {
		t.Errorf("expected Jan 21 flagged as today, got %+v", v.Weeks[3][3])
	}

	if _, err := env.svc.Month(ctx, 2026, 13); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	seedThreeWeeks(t, env)

	dst := sqlite.NewStore(filepath.Join(t.TempDir(), "copy.db"))
	if err := dst.Init(ctx); err != nil {
		t.Fatalf("failed to init destination: %v", err)
	}
	defer dst.Close()

	st, err := Transfer(ctx, env.store, dst)
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if st.Habits != 1 || st.Weeks != 3 || st.HabitsSkipped != 0 || st.WeeksSkipped != 0 {
		t.Errorf("unexpected stats %+v", st)
	}

	cur, err := dst.GetCurrentWeek(ctx)
	if err != nil {
		t.Fatalf("GetCurrentWeek failed: %v", err)
	}
	if cur.WeekID != "2026-W04" || cur.Progress != 100 {
		t.Errorf("unexpected current week %+v", cur)
	}

	again, err := Transfer(ctx, env.store, dst)
	if err != nil {
		t.Fatalf("second Transfer failed: %v", err)
	}
	if again.Habits != 0 || again.HabitsSkipped != 1 || again.WeeksSkipped != 3 {
		t.Errorf("expected everything skipped, got %+v", again)
	}
}
