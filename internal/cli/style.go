package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/progress"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Underline(true)
)

const (
	titleWidth = 28
	dayWidth   = 5
	cellWidth  = 8
	barWidth   = 20
)

// Swatch renders a dot in the habit's color.
func Swatch(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

// ProgressBar renders pct (0..100) as a fixed-width bar followed by the
// percentage.
func ProgressBar(pct int) string {
	pct = max(0, min(100, pct))
	filled := pct * barWidth / 100
	bar := doneStyle.Render(strings.Repeat("█", filled)) +
		MutedStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// WeekGrid renders one row per habit with a column per weekday: a check for
// completed days, a dot for scheduled ones and blank otherwise. today is
// highlighted when valid.
func WeekGrid(entries []models.WeekHabitEntry, today models.Weekday) string {
	col := lipgloss.NewStyle().Width(dayWidth)
	name := lipgloss.NewStyle().Width(titleWidth).MaxWidth(titleWidth)

	var b strings.Builder
	cells := []string{name.Render("")}
	for _, d := range models.AllWeekdays() {
		label := d.String()
		if d == today {
			label = headerStyle.Render(label)
		}
		cells = append(cells, col.Render(label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	b.WriteString("\n")

	for _, e := range entries {
		title := Swatch(e.Color) + " " + e.Title
		if e.IsCompulsory {
			title += "*"
		}
		cells := []string{name.Render(title)}
		for _, d := range models.AllWeekdays() {
			mark := ""
			switch {
			case e.Completion.Get(d):
				mark = doneStyle.Render("✓")
			case e.ScheduledDays.Has(d):
				mark = MutedStyle.Render("·")
			}
			cells = append(cells, col.Render(mark))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

// MonthCalendar renders month rows with each day's completed/scheduled
// counts. Fully completed days get a check mark.
func MonthCalendar(rows [][7]progress.Cell) string {
	col := lipgloss.NewStyle().Width(cellWidth)

	var b strings.Builder
	header := make([]string, 0, 7)
	for _, d := range models.AllWeekdays() {
		header = append(header, col.Render(headerStyle.Render(d.String())))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, 0, 7)
		for _, c := range row {
			text := fmt.Sprintf("%2d", c.Date)
			switch {
			case c.IsComplete:
				text += " " + doneStyle.Render("✓")
			case c.HasHabits:
				text += fmt.Sprintf(" %d/%d", c.CompletedCount, c.TotalCount)
			}
			style := lipgloss.NewStyle()
			if !c.IsCurrentMonth {
				style = MutedStyle
			}
			if c.IsToday {
				style = style.Bold(true).Underline(true)
			}
			cells = append(cells, col.Render(style.Render(text)))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}
