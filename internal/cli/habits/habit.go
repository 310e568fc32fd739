package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/tracker"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit an existing habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Deactivate a habit and drop it from the current week."`
}

type HabitAddCmd struct {
	Title      string   `arg:"" help:"Habit title."`
	Days       []string `help:"Scheduled days, e.g. mon,wed,fri, weekdays or daily." default:"daily"`
	Compulsory bool     `help:"Mark the habit as compulsory."`
	Color      string   `help:"Display color as a hex code." default:""`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	days, err := cli.ParseWeekdays(c.Days)
	if err != nil {
		return err
	}

	habit, err := ctx.Service.CreateHabit(ctx.Ctx(), tracker.NewHabit{
		Title:         c.Title,
		ScheduledDays: days,
		IsCompulsory:  c.Compulsory,
		Color:         c.Color,
	})
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s (%s)\n", habit.Title, habit.ID)
	return nil
}

type HabitListCmd struct {
	All bool `help:"Include inactive habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Service.ListHabits(ctx.Ctx(), c.All)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for _, h := range habits {
		status := ""
		if !h.IsActive {
			status = " [INACTIVE]"
		}
		if h.IsCompulsory {
			status += " [COMPULSORY]"
		}
		ctx.Printf("%s %s%s\n", cli.Swatch(h.Color), h.Title, status)
		ctx.Printf("    %s  %s\n", cli.MutedStyle.Render(h.ID), strings.Join(h.ScheduledDays.Strings(), ","))
	}
	return nil
}

type HabitEditCmd struct {
	Habit      string   `arg:"" help:"Habit ID or title."`
	Title      *string  `help:"New title."`
	Days       []string `help:"New scheduled days."`
	Compulsory *bool    `help:"Set whether the habit is compulsory." negatable:""`
	Color      *string  `help:"New display color."`
	Active     *bool    `help:"Activate or deactivate the habit." negatable:""`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := Resolve(ctx, c.Habit)
	if err != nil {
		return err
	}

	patch := models.HabitPatch{
		Title:        c.Title,
		IsCompulsory: c.Compulsory,
		Color:        c.Color,
		IsActive:     c.Active,
	}
	if len(c.Days) > 0 {
		tokens, err := cli.ParseWeekdays(c.Days)
		if err != nil {
			return err
		}
		days, err := models.ParseDays(tokens)
		if err != nil {
			return err
		}
		patch.ScheduledDays = &days
	}
	if patch.Empty() {
		return fmt.Errorf("nothing to change; pass at least one of --title, --days, --[no-]compulsory, --color or --[no-]active")
	}

	updated, err := ctx.Service.UpdateHabit(ctx.Ctx(), habit.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("Updated habit: %s\n", updated.Title)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := Resolve(ctx, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Service.DeleteHabit(ctx.Ctx(), habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", habit.Title)
	return nil
}

// Resolve finds a habit by exact ID, then by case-insensitive title. A title
// shared by several habits is rejected.
func Resolve(ctx *cli.Context, ref string) (models.Habit, error) {
	habits, err := ctx.Service.ListHabits(ctx.Ctx(), true)
	if err != nil {
		return models.Habit{}, err
	}

	var matches []models.Habit
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
		if strings.EqualFold(strings.TrimSpace(h.Title), strings.TrimSpace(ref)) {
			matches = append(matches, h)
		}
	}

	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%d habits are titled %q; use the habit ID instead", len(matches), ref)
	}
}
