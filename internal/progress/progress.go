// Package progress derives completion counts and percentages from week
// snapshots.
package progress

import (
	"time"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/models"
)

// Percent returns round-half-up of 100*completed/total, or 0 when total is 0.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

// Counts returns scheduled and completed habit-days across entries.
func Counts(entries []models.WeekHabitEntry) (completed, total int) {
	for _, e := range entries {
		for _, d := range e.ScheduledDays {
			total++
			if e.Completion.Get(d) {
				completed++
			}
		}
	}
	return completed, total
}

// Compute returns the week progress for entries.
func Compute(entries []models.WeekHabitEntry) int {
	return Percent(Counts(entries))
}

// DayCounts returns scheduled and completed counts for one weekday.
func DayCounts(entries []models.WeekHabitEntry, wd models.Weekday) (completed, total int) {
	for _, e := range entries {
		if !e.ScheduledDays.Has(wd) {
			continue
		}
		total++
		if e.Completion.Get(wd) {
			completed++
		}
	}
	return completed, total
}

// DayHabit is a habit as it applies to a single date.
type DayHabit struct {
	HabitID      string `json:"habitId"`
	Title        string `json:"title"`
	IsCompulsory bool   `json:"isCompulsory"`
	Color        string `json:"color"`
	Completed    bool   `json:"completed"`
}

// DayView lists the habits scheduled on a date and their completion.
type DayView struct {
	Date           string     `json:"date"`
	DayName        string     `json:"dayName"`
	Habits         []DayHabit `json:"habits"`
	CompletedCount int        `json:"completedCount"`
	TotalCount     int        `json:"totalCount"`
	Progress       int        `json:"progress"`
}

// ForDate filters week's entries to those scheduled on date.
func ForDate(week models.Week, date time.Time) DayView {
	date = calendar.Date(date)
	wd := models.WeekdayOf(date)

	view := DayView{
		Date:    calendar.FormatDate(date),
		DayName: wd.String(),
		Habits:  []DayHabit{},
	}
	for _, e := range week.Habits {
		if !e.ScheduledDays.Has(wd) {
			continue
		}
		done := e.Completion.Get(wd)
		view.Habits = append(view.Habits, DayHabit{
			HabitID:      e.HabitID,
			Title:        e.Title,
			IsCompulsory: e.IsCompulsory,
			Color:        e.Color,
			Completed:    done,
		})
		if done {
			view.CompletedCount++
		}
	}
	view.TotalCount = len(view.Habits)
	view.Progress = Percent(view.CompletedCount, view.TotalCount)
	return view
}

// Cell is a month grid day with completion totals.
type Cell struct {
	calendar.Day
	HasHabits      bool `json:"hasHabits"`
	CompletedCount int  `json:"completedCount"`
	TotalCount     int  `json:"totalCount"`
	IsComplete     bool `json:"isComplete"`
}

// Overlay annotates every grid cell with the totals of the weeks covering it.
func Overlay(weeks []models.Week, grid calendar.Grid) [][7]Cell {
	rows := make([][7]Cell, len(grid.Weeks))
	for r, row := range grid.Weeks {
		for i, d := range row {
			cell := Cell{Day: d}
			wd := models.WeekdayOf(d.Time)
			for w := range weeks {
				if !weeks[w].Covers(d.Time) {
					continue
				}
				completed, total := DayCounts(weeks[w].Habits, wd)
				cell.CompletedCount += completed
				cell.TotalCount += total
			}
			cell.HasHabits = cell.TotalCount > 0
			cell.IsComplete = cell.HasHabits && cell.CompletedCount == cell.TotalCount
			rows[r][i] = cell
		}
	}
	return rows
}
