// Package calendar computes week boundaries, week identifiers and month
// grids in a single anchor time zone.
//
// Civil dates are represented as time.Time values at midnight UTC. The
// anchor zone is consulted only to decide what "now" and "today" are.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/models"
)

const day = 24 * time.Hour

// Calendar answers now-relative questions in a fixed time zone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Calendar anchored to loc, using the wall clock.
func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, now: time.Now}
}

// NewForZone loads the IANA zone name and returns a Calendar anchored to it.
// An empty name selects the default anchor zone.
func NewForZone(name string) (*Calendar, error) {
	loc, err := LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return New(loc), nil
}

// LoadLocation resolves an IANA zone name. Empty means the default zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = constants.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// WithClock returns a copy of c that reads the current instant from now.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the anchor zone.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns today's civil date in the anchor zone.
func (c *Calendar) Today() time.Time {
	return Date(c.Now())
}

func (c *Calendar) TodayString() string {
	return FormatDate(c.Today())
}

func (c *Calendar) TodayWeekday() models.Weekday {
	return models.WeekdayOf(c.Today())
}

func (c *Calendar) CurrentWeekStart() time.Time {
	return WeekStart(c.Today())
}

func (c *Calendar) CurrentWeekID() string {
	return WeekID(c.Today())
}

// IsCurrentWeek reports whether weekStart is the start of today's week.
func (c *Calendar) IsCurrentWeek(weekStart time.Time) bool {
	return Date(weekStart).Equal(c.CurrentWeekStart())
}

// Month builds the grid for year/month and marks today's cell.
func (c *Calendar) Month(year, month int) (Grid, error) {
	return MonthGrid(year, month, c.Today())
}

// NextWeekBoundary returns the first Sunday 00:00 in the anchor zone that is
// strictly after the instant after.
func (c *Calendar) NextWeekBoundary(after time.Time) time.Time {
	local := after.In(c.loc)
	today := Date(local)
	next := WeekStart(today).AddDate(0, 0, 7)
	boundary := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, c.loc)
	if !boundary.After(after) {
		boundary = boundary.AddDate(0, 0, 7)
	}
	return boundary
}

// Date truncates t to its civil date in t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Sunday at or before d.
func WeekStart(d time.Time) time.Time {
	d = Date(d)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekEnd returns the Saturday of d's week at 23:59:59.999.
func WeekEnd(d time.Time) time.Time {
	return WeekStart(d).AddDate(0, 0, 6).Add(day - time.Millisecond)
}

// WeekID labels d's week as YYYY-Wnn.
//
// The year is that of the week's Saturday. A week that starts before the
// first Sunday of that year is W01. When January 1st is not a Sunday the
// first full week is W02, so every week start maps to a distinct label.
func WeekID(d time.Time) string {
	start := WeekStart(d)
	year := start.AddDate(0, 0, 6).Year()

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	firstSunday := jan1.AddDate(0, 0, (7-int(jan1.Weekday()))%7)

	n := 1
	if !start.Before(firstSunday) {
		n = int(start.Sub(firstSunday)/day)/7 + 1
		if jan1.Weekday() != time.Sunday {
			// Counting from 1 here would label both Dec 28 2025 and Jan 4 2026 as 2026-W01.
			n++
		}
	}
	return fmt.Sprintf("%d-W%02d", year, n)
}

// WeekDates maps each weekday of the week starting at weekStart to its date.
func WeekDates(weekStart time.Time) map[string]string {
	dates := make(map[string]string, 7)
	for _, wd := range models.AllWeekdays() {
		dates[wd.String()] = FormatDate(DateOf(weekStart, wd))
	}
	return dates
}

// DateOf returns the date of weekday wd within the week starting at weekStart.
func DateOf(weekStart time.Time, wd models.Weekday) time.Time {
	return WeekStart(weekStart).AddDate(0, 0, int(wd))
}

// ParseDate parses a strict YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, errors.InvalidInput("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

func FormatDate(d time.Time) string {
	return d.Format(constants.DateFormat)
}

// FormatWeekRange renders "Jan 4, 2026 - Jan 10, 2026".
func FormatWeekRange(weekStart, weekEnd time.Time) string {
	return Date(weekStart).Format(constants.DisplayDateFormat) + " - " +
		Date(weekEnd).Format(constants.DisplayDateFormat)
}

// DateInfo describes a civil date and the week containing it.
type DateInfo struct {
	Date      string         `json:"date"`
	DayName   string         `json:"dayName"`
	DayIndex  int            `json:"dayIndex"`
	Weekday   models.Weekday `json:"-"`
	WeekID    string         `json:"weekId"`
	WeekStart time.Time      `json:"weekStart"`
	WeekEnd   time.Time      `json:"weekEnd"`
	Time      time.Time      `json:"-"`
}

// Info parses dateStr and describes it.
func Info(dateStr string) (DateInfo, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return DateInfo{}, err
	}
	wd := models.WeekdayOf(d)
	return DateInfo{
		Date:      FormatDate(d),
		DayName:   wd.String(),
		DayIndex:  int(wd),
		Weekday:   wd,
		WeekID:    WeekID(d),
		WeekStart: WeekStart(d),
		WeekEnd:   WeekEnd(d),
		Time:      d,
	}, nil
}
