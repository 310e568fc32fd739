package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/storage"
)

const weekColumns = "week_id, week_start, week_end, habits, progress, is_current, version, created_at, updated_at"

func (s *Store) CreateWeek(ctx context.Context, week models.Week) (models.Week, error) {
	habits, err := storage.MarshalEntries(week.Habits)
	if err != nil {
		return models.Week{}, err
	}
	now := time.Now().UTC()
	if week.CreatedAt.IsZero() {
		week.CreatedAt = now
	}
	week.UpdatedAt = week.CreatedAt
	week.IsCurrent = true
	week.Version = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Week{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE weeks SET is_current = 0, version = version + 1, updated_at = ?
		WHERE is_current = 1`, now.Format(timeLayout)); err != nil {
		return models.Week{}, fmt.Errorf("failed to clear current week: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO weeks (`+weekColumns+`)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		week.WeekID, storage.DateKey(week.WeekStart), week.WeekEnd.UTC().Format(timeLayout),
		string(habits), week.Progress, week.Version,
		week.CreatedAt.UTC().Format(timeLayout), week.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Week{}, storage.ErrDuplicateWeek
		}
		return models.Week{}, fmt.Errorf("failed to insert week: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Week{}, fmt.Errorf("failed to commit week: %w", err)
	}
	return week, nil
}

func (s *Store) MarkCurrent(ctx context.Context, weekID string) (models.Week, error) {
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Week{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT count(*) FROM weeks WHERE week_id = ?", weekID).Scan(&exists); err != nil {
		return models.Week{}, err
	}
	if exists == 0 {
		return models.Week{}, storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE weeks SET is_current = 0, version = version + 1, updated_at = ?
		WHERE is_current = 1 AND week_id <> ?`, now, weekID); err != nil {
		return models.Week{}, fmt.Errorf("failed to clear current week: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE weeks SET is_current = 1, version = version + 1, updated_at = ?
		WHERE week_id = ? AND is_current = 0`, now, weekID); err != nil {
		return models.Week{}, fmt.Errorf("failed to mark week current: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Week{}, fmt.Errorf("failed to commit current week: %w", err)
	}
	return s.GetWeek(ctx, weekID)
}

func (s *Store) ImportWeek(ctx context.Context, week models.Week) error {
	habits, err := storage.MarshalEntries(week.Habits)
	if err != nil {
		return err
	}
	if week.UpdatedAt.IsZero() {
		week.UpdatedAt = week.CreatedAt
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weeks (`+weekColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		week.WeekID, storage.DateKey(week.WeekStart), week.WeekEnd.UTC().Format(timeLayout),
		string(habits), week.Progress, week.IsCurrent,
		week.CreatedAt.UTC().Format(timeLayout), week.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateWeek
		}
		return fmt.Errorf("failed to import week %s: %w", week.WeekID, err)
	}
	return nil
}

func (s *Store) GetWeek(ctx context.Context, weekID string) (models.Week, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+weekColumns+" FROM weeks WHERE week_id = ?", weekID)
	return notFound(scanWeek(row))
}

func (s *Store) GetCurrentWeek(ctx context.Context) (models.Week, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+weekColumns+" FROM weeks WHERE is_current = 1")
	return notFound(scanWeek(row))
}

func (s *Store) SaveWeek(ctx context.Context, week models.Week) (models.Week, error) {
	habits, err := storage.MarshalEntries(week.Habits)
	if err != nil {
		return models.Week{}, err
	}
	week.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE weeks SET habits = ?, progress = ?, version = version + 1, updated_at = ?
		WHERE week_id = ? AND version = ?`,
		string(habits), week.Progress, week.UpdatedAt.Format(timeLayout), week.WeekID, week.Version,
	)
	if err != nil {
		return models.Week{}, fmt.Errorf("failed to save week: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Week{}, err
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM weeks WHERE week_id = ?", week.WeekID).Scan(&exists)
		if err != nil {
			return models.Week{}, err
		}
		if exists == 0 {
			return models.Week{}, storage.ErrNotFound
		}
		return models.Week{}, storage.ErrConflict
	}

	week.Version++
	return week, nil
}

func (s *Store) ListWeeks(ctx context.Context, q storage.WeekQuery) ([]models.Week, error) {
	query := "SELECT " + weekColumns + " FROM weeks"
	if q.PastOnly {
		query += " WHERE is_current = 0"
	}
	query += " ORDER BY week_start DESC LIMIT ? OFFSET ?"

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	skip := q.Skip
	if skip < 0 {
		skip = 0
	}
	return s.queryWeeks(ctx, query, limit, skip)
}

func (s *Store) CountWeeks(ctx context.Context, pastOnly bool) (int, error) {
	query := "SELECT count(*) FROM weeks"
	if pastOnly {
		query += " WHERE is_current = 0"
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) WeeksBetween(ctx context.Context, from, to time.Time) ([]models.Week, error) {
	return s.queryWeeks(ctx, `
		SELECT `+weekColumns+` FROM weeks
		WHERE week_start >= ? AND week_start <= ?
		ORDER BY week_start`,
		storage.DateKey(storage.OverlapStart(from)), storage.DateKey(to),
	)
}

func (s *Store) queryWeeks(ctx context.Context, query string, args ...any) ([]models.Week, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weeks := []models.Week{}
	for rows.Next() {
		w, err := scanWeek(rows)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func scanWeek(row scanner) (models.Week, error) {
	var w models.Week
	var weekStart, weekEnd, habits, createdAt, updatedAt string

	err := row.Scan(&w.WeekID, &weekStart, &weekEnd, &habits, &w.Progress, &w.IsCurrent, &w.Version, &createdAt, &updatedAt)
	if err != nil {
		return models.Week{}, err
	}

	if w.WeekStart, err = storage.ParseDateKey(weekStart); err != nil {
		return models.Week{}, err
	}
	if w.WeekEnd, err = time.Parse(timeLayout, weekEnd); err != nil {
		return models.Week{}, fmt.Errorf("failed to parse week_end: %w", err)
	}
	if w.Habits, err = storage.UnmarshalEntries([]byte(habits)); err != nil {
		return models.Week{}, err
	}
	if w.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return models.Week{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if w.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return models.Week{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return w, nil
}

func notFound(w models.Week, err error) (models.Week, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return models.Week{}, storage.ErrNotFound
	}
	return w, err
}
