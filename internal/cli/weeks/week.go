package weeks

import (
	"fmt"

	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/cli/habits"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/tracker"
)

type WeekCmd struct {
	Show     WeekShowCmd     `cmd:"" help:"Show the current week or a stored one." default:"withargs"`
	Ensure   WeekEnsureCmd   `cmd:"" help:"Create the current week if it does not exist."`
	Toggle   WeekToggleCmd   `cmd:"" help:"Toggle a habit's completion for a day of the current week."`
	Date     WeekDateCmd     `cmd:"" help:"Show the habits scheduled on a date."`
	Calendar WeekCalendarCmd `cmd:"" help:"Show a month calendar with completion counts."`
	History  WeekHistoryCmd  `cmd:"" help:"List past weeks, newest first."`
	Stats    WeekStatsCmd    `cmd:"" help:"Show aggregate progress statistics."`
}

type WeekEnsureCmd struct{}

func (c *WeekEnsureCmd) Run(ctx *cli.Context) error {
	week, err := ctx.Service.EnsureCurrentWeek(ctx.Ctx())
	if err != nil {
		return err
	}
	ctx.Printf("✓ Current week %s (%d habits)\n", week.WeekID, len(week.Habits))
	return nil
}

type WeekShowCmd struct {
	WeekID string `arg:"" optional:"" help:"Week identifier such as 2026-W02. Defaults to the current week."`
}

func (c *WeekShowCmd) Run(ctx *cli.Context) error {
	if c.WeekID == "" {
		view, err := ctx.Service.CurrentWeek(ctx.Ctx())
		if err != nil {
			return err
		}
		today, _ := models.ParseWeekday(view.Today)
		printWeek(ctx, view.WeekID, view.WeekRange, view.Progress, view.Habits, today)
		return nil
	}

	detail, err := ctx.Service.Week(ctx.Ctx(), c.WeekID)
	if err != nil {
		return err
	}
	today := models.Weekday(-1)
	if detail.IsCurrent {
		today = ctx.Service.Calendar().TodayWeekday()
	}
	printWeek(ctx, detail.WeekID, detail.WeekRange, detail.Progress, detail.Habits, today)
	return nil
}

func printWeek(ctx *cli.Context, id, weekRange string, pct int, entries []models.WeekHabitEntry, today models.Weekday) {
	ctx.Printf("%s  %s\n", cli.TitleStyle.Render(id), cli.MutedStyle.Render(weekRange))
	ctx.Println(cli.ProgressBar(pct))
	ctx.Println()
	if len(entries) == 0 {
		ctx.Println("No habits tracked this week.")
		return
	}
	ctx.Print(cli.WeekGrid(entries, today))
}

type WeekToggleCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
	Day   string `arg:"" optional:"" help:"Day of the current week (e.g. mon). Defaults to today."`
}

func (c *WeekToggleCmd) Run(ctx *cli.Context) error {
	habit, err := habits.Resolve(ctx, c.Habit)
	if err != nil {
		return err
	}

	day := ctx.Service.Calendar().TodayWeekday().String()
	if c.Day != "" {
		tokens, err := cli.ParseWeekdays([]string{c.Day})
		if err != nil {
			return err
		}
		if len(tokens) != 1 {
			return fmt.Errorf("toggle takes a single day, got %q", c.Day)
		}
		day = tokens[0]
	}

	res, err := ctx.Service.Toggle(ctx.Ctx(), habit.ID, day)
	if err != nil {
		return err
	}
	state := "not done"
	if res.Completed {
		state = "done"
	}
	ctx.Printf("%s on %s: %s (week %s at %d%%)\n", habit.Title, res.Day, state, res.WeekID, res.Progress)
	return nil
}

type WeekDateCmd struct {
	Date string `arg:"" optional:"" help:"Date in YYYY-MM-DD format. Defaults to today."`
}

func (c *WeekDateCmd) Run(ctx *cli.Context) error {
	date := c.Date
	if date == "" {
		date = ctx.Service.Calendar().TodayString()
	}

	view, err := ctx.Service.Date(ctx.Ctx(), date)
	if err != nil {
		return err
	}

	ctx.Printf("%s  %s  %s\n", cli.TitleStyle.Render(view.Date), view.DayName, cli.MutedStyle.Render(view.WeekID))
	if view.Message != "" {
		ctx.Println(view.Message)
		return nil
	}
	if len(view.Habits) == 0 {
		ctx.Println("No habits scheduled.")
		return nil
	}
	for _, h := range view.Habits {
		mark := "[ ]"
		if h.Completed {
			mark = "[✓]"
		}
		ctx.Printf("  %s %s %s\n", mark, cli.Swatch(h.Color), h.Title)
	}
	ctx.Printf("\n%d/%d completed\n", view.CompletedCount, view.TotalCount)
	return nil
}

type WeekCalendarCmd struct {
	Year  int `help:"Year. Defaults to the current year."`
	Month int `help:"Month (1-12). Defaults to the current month."`
}

func (c *WeekCalendarCmd) Run(ctx *cli.Context) error {
	today := ctx.Service.Calendar().Today()
	year, month := c.Year, c.Month
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}

	view, err := ctx.Service.Month(ctx.Ctx(), year, month)
	if err != nil {
		return err
	}
	ctx.Printf("%s\n\n", cli.TitleStyle.Render(fmt.Sprintf("%s %d", view.MonthName, view.Year)))
	ctx.Print(cli.MonthCalendar(view.Weeks))
	return nil
}

type WeekHistoryCmd struct {
	Skip  int `help:"Number of weeks to skip."`
	Limit int `help:"Maximum number of weeks to show." default:"10"`
}

func (c *WeekHistoryCmd) Run(ctx *cli.Context) error {
	page, err := ctx.Service.History(ctx.Ctx(), c.Skip, c.Limit)
	if err != nil {
		return err
	}
	if len(page.Weeks) == 0 {
		ctx.Println("No past weeks found.")
		return nil
	}

	for _, w := range page.Weeks {
		ctx.Printf("%-9s  %-26s  %s\n", w.WeekID, w.WeekRange, cli.ProgressBar(w.Progress))
	}
	skip, _ := tracker.ClampPage(c.Skip, c.Limit)
	ctx.Printf("\nShowing %d-%d of %d", skip+1, skip+len(page.Weeks), page.Total)
	if page.HasMore {
		ctx.Printf(" (use --skip %d for more)", skip+len(page.Weeks))
	}
	ctx.Println()
	return nil
}

type WeekStatsCmd struct{}

func (c *WeekStatsCmd) Run(ctx *cli.Context) error {
	st, err := ctx.Service.Stats(ctx.Ctx())
	if err != nil {
		return err
	}

	ctx.Printf("Weeks tracked:    %d\n", st.TotalWeeks)
	ctx.Printf("Active habits:    %d\n", st.TotalHabits)
	ctx.Printf("Average progress: %d%%\n", st.AvgProgress)
	ctx.Printf("Current progress: %d%%\n", st.CurrentProgress)
	if len(st.WeeklyProgress) == 0 {
		return nil
	}

	ctx.Println()
	ctx.Println(cli.TitleStyle.Render("Recent weeks"))
	for _, p := range st.WeeklyProgress {
		ctx.Printf("%-9s  %s\n", p.WeekID, cli.ProgressBar(p.Progress))
	}
	return nil
}
