package tracker

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/progress"
	"github.com/julianstephens/weeklit/internal/storage"
)

// NoDataMessage is reported for dates whose week was never tracked.
const NoDataMessage = "No data available for this date"

// WeekView is the current week as presented to clients.
type WeekView struct {
	WeekID    string                  `json:"weekId"`
	WeekStart time.Time               `json:"weekStart"`
	WeekEnd   time.Time               `json:"weekEnd"`
	WeekRange string                  `json:"weekRange"`
	Today     string                  `json:"today"`
	TodayDate string                  `json:"todayDate"`
	WeekDates map[string]string       `json:"weekDates"`
	Habits    []models.WeekHabitEntry `json:"habits"`
	Progress  int                     `json:"progress"`
	DaysOrder []string                `json:"daysOrder"`
}

// CurrentWeek ensures the week for today exists and describes it.
func (s *Service) CurrentWeek(ctx context.Context) (WeekView, error) {
	week, err := s.EnsureCurrentWeek(ctx)
	if err != nil {
		return WeekView{}, err
	}
	return WeekView{
		WeekID:    week.WeekID,
		WeekStart: week.WeekStart,
		WeekEnd:   week.WeekEnd,
		WeekRange: calendar.FormatWeekRange(week.WeekStart, week.WeekEnd),
		Today:     s.cal.TodayWeekday().String(),
		TodayDate: s.cal.TodayString(),
		WeekDates: calendar.WeekDates(week.WeekStart),
		Habits:    week.Habits,
		Progress:  week.Progress,
		DaysOrder: models.WeekdayNames(),
	}, nil
}

// WeekDetail is a stored week plus display fields. IsCurrent reflects the
// calendar, not the stored flag.
type WeekDetail struct {
	models.Week
	WeekRange string            `json:"weekRange"`
	WeekDates map[string]string `json:"weekDates"`
	DaysOrder []string          `json:"daysOrder"`
}

func (s *Service) detail(w models.Week) WeekDetail {
	w.IsCurrent = s.cal.IsCurrentWeek(w.WeekStart)
	return WeekDetail{
		Week:      w,
		WeekRange: calendar.FormatWeekRange(w.WeekStart, w.WeekEnd),
		WeekDates: calendar.WeekDates(w.WeekStart),
		DaysOrder: models.WeekdayNames(),
	}
}

func (s *Service) Week(ctx context.Context, weekID string) (WeekDetail, error) {
	w, err := s.store.GetWeek(ctx, weekID)
	if err != nil {
		return WeekDetail{}, storageErr("week "+weekID, err)
	}
	return s.detail(w), nil
}

type HistoryPage struct {
	Weeks   []WeekDetail `json:"weeks"`
	Total   int          `json:"total"`
	HasMore bool         `json:"hasMore"`
}

// ClampPage normalises paging input: negative skip becomes 0, a missing
// limit becomes the default and large limits are capped.
func ClampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	if limit > constants.MaxHistoryLimit {
		limit = constants.MaxHistoryLimit
	}
	return skip, limit
}

// History pages through past weeks, newest first.
func (s *Service) History(ctx context.Context, skip, limit int) (HistoryPage, error) {
	skip, limit = ClampPage(skip, limit)

	weeks, err := s.store.ListWeeks(ctx, storage.WeekQuery{PastOnly: true, Skip: skip, Limit: limit})
	if err != nil {
		return HistoryPage{}, storageErr("list weeks", err)
	}
	total, err := s.store.CountWeeks(ctx, true)
	if err != nil {
		return HistoryPage{}, storageErr("count weeks", err)
	}

	page := HistoryPage{
		Weeks:   make([]WeekDetail, 0, len(weeks)),
		Total:   total,
		HasMore: skip+len(weeks) < total,
	}
	for _, w := range weeks {
		page.Weeks = append(page.Weeks, s.detail(w))
	}
	return page, nil
}

type SeriesPoint struct {
	WeekID    string `json:"weekId"`
	Progress  int    `json:"progress"`
	WeekRange string `json:"weekRange"`
}

type Stats struct {
	TotalWeeks      int           `json:"totalWeeks"`
	AvgProgress     int           `json:"avgProgress"`
	TotalHabits     int           `json:"totalHabits"`
	CurrentProgress int           `json:"currentProgress"`
	WeeklyProgress  []SeriesPoint `json:"weeklyProgress"`
}

// Stats aggregates every stored week. The series covers the most recent
// weeks, oldest first.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	weeks, err := s.store.ListWeeks(ctx, storage.WeekQuery{})
	if err != nil {
		return Stats{}, storageErr("list weeks", err)
	}
	habits, err := s.store.CountHabits(ctx, true)
	if err != nil {
		return Stats{}, storageErr("count habits", err)
	}

	st := Stats{
		TotalWeeks:     len(weeks),
		TotalHabits:    habits,
		WeeklyProgress: []SeriesPoint{},
	}

	sum := 0
	for _, w := range weeks {
		sum += w.Progress
		if w.IsCurrent {
			st.CurrentProgress = w.Progress
		}
	}
	if len(weeks) > 0 {
		st.AvgProgress = (2*sum + len(weeks)) / (2 * len(weeks))
	}

	n := min(len(weeks), constants.StatsSeriesLength)
	for i := n - 1; i >= 0; i-- {
		w := weeks[i]
		st.WeeklyProgress = append(st.WeeklyProgress, SeriesPoint{
			WeekID:    w.WeekID,
			Progress:  w.Progress,
			WeekRange: calendar.FormatWeekRange(w.WeekStart, w.WeekEnd),
		})
	}
	return st, nil
}

// DateView is the habits scheduled on one date. Message is set when no week
// was tracked for that date.
type DateView struct {
	progress.DayView
	WeekID        string `json:"weekId"`
	WeekRange     string `json:"weekRange,omitempty"`
	IsCurrentWeek bool   `json:"isCurrentWeek"`
	Message       string `json:"message,omitempty"`
}

func (s *Service) Date(ctx context.Context, date string) (DateView, error) {
	info, err := calendar.Info(date)
	if err != nil {
		return DateView{}, err
	}

	week, err := s.store.GetWeek(ctx, info.WeekID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return DateView{
			DayView: progress.DayView{
				Date:    info.Date,
				DayName: info.DayName,
				Habits:  []progress.DayHabit{},
			},
			WeekID:        info.WeekID,
			IsCurrentWeek: s.cal.IsCurrentWeek(info.WeekStart),
			Message:       NoDataMessage,
		}, nil
	}
	if err != nil {
		return DateView{}, storageErr("week "+info.WeekID, err)
	}

	return DateView{
		DayView:       progress.ForDate(week, info.Time),
		WeekID:        week.WeekID,
		WeekRange:     calendar.FormatWeekRange(week.WeekStart, week.WeekEnd),
		IsCurrentWeek: s.cal.IsCurrentWeek(week.WeekStart),
	}, nil
}

type CalendarView struct {
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	MonthName  string             `json:"monthName"`
	Weeks      [][7]progress.Cell `json:"weeks"`
	Today      string             `json:"today"`
	CurrentDay string             `json:"currentDay"`
}

// Month lays out year/month with per-day completion from the stored weeks.
func (s *Service) Month(ctx context.Context, year, month int) (CalendarView, error) {
	grid, err := s.cal.Month(year, month)
	if err != nil {
		return CalendarView{}, err
	}

	from, to := grid.Span()
	weeks, err := s.store.WeeksBetween(ctx, from, to)
	if err != nil {
		return CalendarView{}, storageErr("weeks between", err)
	}

	return CalendarView{
		Year:       year,
		Month:      month,
		MonthName:  time.Month(month).String(),
		Weeks:      progress.Overlay(weeks, grid),
		Today:      s.cal.TodayString(),
		CurrentDay: s.cal.TodayWeekday().String(),
	}, nil
}
