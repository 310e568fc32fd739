package tracker

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/storage"
)

type TransferStats struct {
	Habits        int
	HabitsSkipped int
	Weeks         int
	WeeksSkipped  int
}

// Transfer copies every habit and week from src into dst. Records already
// present in dst are skipped. The source's current week keeps its flag only
// if dst has no current week of its own.
func Transfer(ctx context.Context, src, dst storage.Provider) (TransferStats, error) {
	var st TransferStats

	habits, err := src.ListHabits(ctx, false)
	if err != nil {
		return st, fmt.Errorf("failed to read source habits: %w", err)
	}
	for _, h := range habits {
		if _, err := dst.GetHabit(ctx, h.ID); err == nil {
			st.HabitsSkipped++
			continue
		} else if !stderrors.Is(err, storage.ErrNotFound) {
			return st, fmt.Errorf("failed to check habit %s: %w", h.ID, err)
		}
		if err := dst.AddHabit(ctx, h); err != nil {
			return st, fmt.Errorf("failed to copy habit %s: %w", h.ID, err)
		}
		st.Habits++
	}

	_, err = dst.GetCurrentWeek(ctx)
	dstHasCurrent := err == nil
	if err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		return st, fmt.Errorf("failed to read destination current week: %w", err)
	}

	weeks, err := src.ListWeeks(ctx, storage.WeekQuery{})
	if err != nil {
		return st, fmt.Errorf("failed to read source weeks: %w", err)
	}
	// Oldest first so history reads naturally in insertion-ordered stores.
	for i := len(weeks) - 1; i >= 0; i-- {
		w := weeks[i]
		if dstHasCurrent {
			w.IsCurrent = false
		}
		err := dst.ImportWeek(ctx, w)
		if stderrors.Is(err, storage.ErrDuplicateWeek) {
			logger.Debug("Week already present, skipping", "weekId", w.WeekID)
			st.WeeksSkipped++
			continue
		}
		if err != nil {
			return st, fmt.Errorf("failed to copy week %s: %w", w.WeekID, err)
		}
		st.Weeks++
	}

	logger.Info("Transfer complete", "habits", st.Habits, "weeks", st.Weeks,
		"habitsSkipped", st.HabitsSkipped, "weeksSkipped", st.WeeksSkipped)
	return st, nil
}
