package calendar

import (
	"time"

	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/models"
)

// Day is one cell of a month grid.
type Day struct {
	Date           int       `json:"date"`
	FullDate       string    `json:"fullDate"`
	DayName        string    `json:"dayName"`
	IsCurrentMonth bool      `json:"isCurrentMonth"`
	IsToday        bool      `json:"isToday"`
	Time           time.Time `json:"-"`
}

// Grid is a month laid out in Sunday-first rows of seven cells.
type Grid struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Weeks [][7]Day `json:"weeks"`
}

// ValidateMonth checks year/month components.
func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return errors.InvalidInput("invalid month %d (expected 1-12)", month)
	}
	if year < 1 || year > 9999 {
		return errors.InvalidInput("invalid year %d (expected 1-9999)", year)
	}
	return nil
}

// MonthGrid builds the grid for year/month, padding the first and last rows
// with days of the neighbouring months. Cells equal to today are flagged.
func MonthGrid(year, month int, today time.Time) (Grid, error) {
	if err := ValidateMonth(year, month); err != nil {
		return Grid{}, err
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	today = Date(today)

	grid := Grid{Year: year, Month: month}
	for row := WeekStart(first); !row.After(last); row = row.AddDate(0, 0, 7) {
		var cells [7]Day
		for i := range cells {
			d := row.AddDate(0, 0, i)
			cells[i] = Day{
				Date:           d.Day(),
				FullDate:       FormatDate(d),
				DayName:        models.WeekdayOf(d).String(),
				IsCurrentMonth: d.Month() == first.Month() && d.Year() == year,
				IsToday:        d.Equal(today),
				Time:           d,
			}
		}
		grid.Weeks = append(grid.Weeks, cells)
	}
	return grid, nil
}

// Span returns the first and last civil dates shown in the grid.
func (g Grid) Span() (time.Time, time.Time) {
	if len(g.Weeks) == 0 {
		return time.Time{}, time.Time{}
	}
	return g.Weeks[0][0].Time, g.Weeks[len(g.Weeks)-1][6].Time
}
