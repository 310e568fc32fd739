package calendar

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStartAndEnd(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		start time.Time
	}{
		{"sunday is its own start", date(2026, 1, 4), date(2026, 1, 4)},
		{"saturday", date(2026, 1, 10), date(2026, 1, 4)},
		{"wednesday across year", date(2025, 12, 31), date(2025, 12, 28)},
		{"leap day", date(2024, 2, 29), date(2024, 2, 25)},
		{"time of day ignored", time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC), date(2026, 3, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.input)
			if !got.Equal(tt.start) {
				t.Errorf("WeekStart(%v) = %v, want %v", tt.input, got, tt.start)
			}
			wantEnd := tt.start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond)
			if end := WeekEnd(tt.input); !end.Equal(wantEnd) {
				t.Errorf("WeekEnd(%v) = %v, want %v", tt.input, end, wantEnd)
			}
		})
	}
}

func TestWeekBoundsContainEveryDate(t *testing.T) {
	d := date(2023, 12, 1)
	for i := 0; i < 800; i++ {
		start, end := WeekStart(d), WeekEnd(d)
		if d.Before(start) || d.After(end) {
			t.Fatalf("%v not within [%v, %v]", d, start, end)
		}
		if start.Weekday() != time.Sunday {
			t.Fatalf("week start %v is not a Sunday", start)
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestWeekID(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"year boundary week takes end year", date(2025, 12, 28), "2026-W01"},
		{"same week on saturday", date(2026, 1, 3), "2026-W01"},
		{"first full week after partial week", date(2026, 1, 4), "2026-W02"},
		{"later week", date(2026, 1, 15), "2026-W03"},
		{"jan 1 on sunday", date(2023, 1, 1), "2023-W01"},
		{"second week when jan 1 is sunday", date(2023, 1, 8), "2023-W02"},
		{"last week ending in year", date(2023, 12, 30), "2023-W52"},
		{"week ending in next year", date(2023, 12, 31), "2024-W01"},
		{"mid year", date(2024, 6, 12), "2024-W24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekID(tt.input); got != tt.want {
				t.Errorf("WeekID(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWeekIDStableWithinWeekAndUnique(t *testing.T) {
	seen := make(map[string]time.Time)
	start := date(2019, 12, 1)
	for w := 0; w < 600; w++ {
		ws := start.AddDate(0, 0, 7*w)
		id := WeekID(ws)
		for i := 1; i < 7; i++ {
			if other := WeekID(ws.AddDate(0, 0, i)); other != id {
				t.Fatalf("week of %v has unstable ids %q and %q", ws, id, other)
			}
		}
		if prev, ok := seen[id]; ok {
			t.Fatalf("weekId %q assigned to both %v and %v", id, prev, ws)
		}
		seen[id] = ws
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2026-01-15", false},
		{"2024-02-29", false},
		{"2023-02-29", true},
		{"2026-1-15", true},
		{"2026-13-01", true},
		{"15-01-2026", true},
		{"2026-01-15T00:00:00Z", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !stderrors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	info, err := Info("2026-01-01")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.DayName != "Thu" || info.Weekday != models.Thursday || info.DayIndex != 4 {
		t.Errorf("unexpected day: %+v", info)
	}
	if info.WeekID != "2026-W01" {
		t.Errorf("expected 2026-W01, got %s", info.WeekID)
	}
	if !info.WeekStart.Equal(date(2025, 12, 28)) {
		t.Errorf("unexpected week start %v", info.WeekStart)
	}
}

func TestWeekDatesAndRange(t *testing.T) {
	dates := WeekDates(date(2026, 1, 7))
	if dates["Sun"] != "2026-01-04" || dates["Sat"] != "2026-01-10" || len(dates) != 7 {
		t.Errorf("unexpected week dates %v", dates)
	}
	got := FormatWeekRange(WeekStart(date(2026, 1, 7)), WeekEnd(date(2026, 1, 7)))
	if got != "Jan 4, 2026 - Jan 10, 2026" {
		t.Errorf("unexpected range %q", got)
	}
}

func TestCalendarTodayUsesAnchorZone(t *testing.T) {
	loc, err := LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 20:00 UTC on Saturday is 01:30 Sunday in Kolkata.
	instant := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
	cal := New(loc).WithClock(func() time.Time { return instant })

	if !cal.Today().Equal(date(2026, 1, 11)) {
		t.Errorf("expected 2026-01-11, got %v", cal.Today())
	}
	if cal.TodayWeekday() != models.Sunday {
		t.Errorf("expected Sunday, got %v", cal.TodayWeekday())
	}
	if cal.CurrentWeekID() != "2026-W03" {
		t.Errorf("expected 2026-W03, got %s", cal.CurrentWeekID())
	}
	if !cal.IsCurrentWeek(date(2026, 1, 11)) || cal.IsCurrentWeek(date(2026, 1, 4)) {
		t.Error("IsCurrentWeek returned wrong result")
	}
}

func TestNextWeekBoundary(t *testing.T) {
	loc, err := LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	cal := New(loc)

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{"midweek", time.Date(2026, 1, 7, 12, 0, 0, 0, loc), time.Date(2026, 1, 11, 0, 0, 0, 0, loc)},
		{"saturday night", time.Date(2026, 1, 10, 23, 59, 0, 0, loc), time.Date(2026, 1, 11, 0, 0, 0, 0, loc)},
		{"exactly on boundary", time.Date(2026, 1, 11, 0, 0, 0, 0, loc), time.Date(2026, 1, 18, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.NextWeekBoundary(tt.after); !got.Equal(tt.want) {
				t.Errorf("NextWeekBoundary(%v) = %v, want %v", tt.after, got, tt.want)
			}
		})
	}
}

func TestLoadLocationRejectsUnknownZone(t *testing.T) {
	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Error("expected error for unknown zone")
	}
}
