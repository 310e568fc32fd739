package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/progress"
	"github.com/julianstephens/weeklit/internal/storage"
)

type DoctorCmd struct{}

type healthCheck struct {
	name string
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
	// warn checks report a warning instead of failing.
	warn bool
	run  func(context.Context, *cli.Context) error
}

var healthChecks = []healthCheck{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Current week", needsDB: true, run: checkCurrentWeek},
	{name: "Week integrity", needsDB: true, run: checkWeekIntegrity},
	{name: "Habit integrity", needsDB: true, run: checkHabitIntegrity},
	{name: "Current week habits", needsDB: true, warn: true, run: checkCurrentWeekHabits},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Backups present", warn: true, run: checkBackupsPresent},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	runCtx := ctx.Ctx()
	hasError := false

	dbReachable := true
	if err := checkDBReachable(runCtx, ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, check := range healthChecks {
		if check.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", check.name)
			continue
		}
		err := check.run(runCtx, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", check.name)
		case check.warn:
			ctx.Printf("⚠ %s: WARNING\n", check.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", check.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

// checkDBReachable opens the store without enforcing the schema version so
// that the version checks can report on it.
func checkDBReachable(runCtx context.Context, ctx *cli.Context) error {
	if m, ok := ctx.Store.(cli.Migrator); ok {
		if err := m.Open(runCtx); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
	} else if err := ctx.Store.Load(runCtx); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return ctx.Store.Ping(runCtx)
}

func schemaVersions(runCtx context.Context, ctx *cli.Context) (current, latest int, ok bool, err error) {
	m, isSQL := ctx.Store.(cli.Migrator)
	if !isSQL {
		return 0, 0, false, nil
	}
	runner, err := m.Runner()
	if err != nil {
		return 0, 0, false, err
	}
	current, err = runner.GetCurrentVersion(runCtx)
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err = runner.GetLatestVersion()
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to get latest schema version: %w", err)
	}
	return current, latest, true, nil
}

func checkSchemaVersion(runCtx context.Context, ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(runCtx, ctx)
	if err != nil || !ok {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(runCtx context.Context, ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(runCtx, ctx)
	if err != nil || !ok {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d; run 'weeklit migrate'", current, latest)
	}
	return nil
}

func checkCurrentWeek(runCtx context.Context, ctx *cli.Context) error {
	weeks, err := ctx.Store.ListWeeks(runCtx, storage.WeekQuery{})
	if err != nil {
		return err
	}
	var current []string
	for _, w := range weeks {
		if w.IsCurrent {
			current = append(current, w.WeekID)
		}
	}
	if len(current) > 1 {
		return fmt.Errorf("%d weeks are flagged current: %v", len(current), current)
	}
	if len(current) == 0 && len(weeks) > 0 {
		return fmt.Errorf("%d weeks are stored but none is flagged current; run 'weeklit week ensure' to restore the flag", len(weeks))
	}
	return nil
}

func checkWeekIntegrity(runCtx context.Context, ctx *cli.Context) error {
	weeks, err := ctx.Store.ListWeeks(runCtx, storage.WeekQuery{})
	if err != nil {
		return err
	}
	var issues []string
	for _, w := range weeks {
		issues = append(issues, weekIssues(w)...)
	}
	return issueList(issues)
}

func weekIssues(w models.Week) []string {
	var issues []string
	if w.WeekStart.Weekday() != time.Sunday {
		issues = append(issues, fmt.Sprintf("week %s starts on %s", w.WeekID, w.WeekStart.Weekday()))
	}
	if !w.WeekEnd.Equal(calendar.WeekEnd(w.WeekStart)) {
		issues = append(issues, fmt.Sprintf("week %s ends on %s", w.WeekID, calendar.FormatDate(w.WeekEnd)))
	}
	if id := calendar.WeekID(w.WeekStart); id != w.WeekID {
		issues = append(issues, fmt.Sprintf("week starting %s is labelled %s, expected %s",
			calendar.FormatDate(w.WeekStart), w.WeekID, id))
	}
	if p := progress.Compute(w.Habits); p != w.Progress {
		issues = append(issues, fmt.Sprintf("week %s stores progress %d, computed %d", w.WeekID, w.Progress, p))
	}
	seen := make(map[string]bool, len(w.Habits))
	for _, e := range w.Habits {
		if seen[e.HabitID] {
			issues = append(issues, fmt.Sprintf("week %s lists habit %s twice", w.WeekID, e.HabitID))
		}
		seen[e.HabitID] = true
		if len(e.ScheduledDays) == 0 {
			issues = append(issues, fmt.Sprintf("week %s habit %s has no scheduled days", w.WeekID, e.HabitID))
		}
	}
	return issues
}

func checkHabitIntegrity(runCtx context.Context, ctx *cli.Context) error {
	habits, err := ctx.Store.ListHabits(runCtx, false)
	if err != nil {
		return err
	}
	var issues []string
	for _, h := range habits {
		if err := h.Validate(); err != nil {
			issues = append(issues, fmt.Sprintf("habit %s: %v", h.ID, err))
		}
	}
	return issueList(issues)
}

// checkCurrentWeekHabits compares the current week's entries with the
// active habits. A mismatch means a propagation failed; the next
// 'weeklit week ensure' reconciles it.
func checkCurrentWeekHabits(runCtx context.Context, ctx *cli.Context) error {
	week, err := ctx.Store.GetCurrentWeek(runCtx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no current week yet; it is created on the first request or by 'weeklit week ensure'")
		}
		return err
	}
	habits, err := ctx.Store.ListHabits(runCtx, true)
	if err != nil {
		return err
	}

	var issues []string
	active := make(map[string]bool, len(habits))
	for _, h := range habits {
		active[h.ID] = true
		if week.EntryIndex(h.ID) < 0 {
			issues = append(issues, fmt.Sprintf("active habit %q is missing from %s", h.Title, week.WeekID))
		}
	}
	for _, e := range week.Habits {
		if !active[e.HabitID] {
			issues = append(issues, fmt.Sprintf("%s lists inactive or deleted habit %q", week.WeekID, e.Title))
		}
	}
	return issueList(issues)
}

func checkClockTimezone(_ context.Context, ctx *cli.Context) error {
	if _, err := ctx.Config.Location(); err != nil {
		return err
	}
	if now := time.Now(); now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkBackupsPresent(_ context.Context, ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return nil
	}
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'weeklit backup create'")
	}
	return nil
}

func issueList(issues []string) error {
	switch len(issues) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s", issues[0])
	}
	msg := fmt.Sprintf("%d problems found:", len(issues))
	for _, issue := range issues {
		msg += "\n     - " + issue
	}
	return fmt.Errorf("%s", msg)
}
