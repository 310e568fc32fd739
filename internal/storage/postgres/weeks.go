package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/storage"
)

// week_start is a DATE; it is read back as text so no session time zone
// can shift it.
const weekColumns = "week_id, to_char(week_start, 'YYYY-MM-DD'), week_end, habits, progress, is_current, version, created_at, updated_at"

const weekInsertColumns = "week_id, week_start, week_end, habits, progress, is_current, version, created_at, updated_at"

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
		UPDATE weeks SET is_current = FALSE, version = version + 1, updated_at = $1
		WHERE is_current`, now); err != nil {
		return models.Week{}, fmt.Errorf("failed to clear current week: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO weeks (`+weekInsertColumns+`)
		VALUES ($1, $2::date, $3, $4, $5, TRUE, $6, $7, $8)`,
		week.WeekID, storage.DateKey(week.WeekStart), week.WeekEnd.UTC(), string(habits),
		week.Progress, week.Version, week.CreatedAt.UTC(), week.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Week{}, storage.ErrDuplicateWeek
		}
		return models.Week{}, fmt.Errorf("failed to insert week: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return models.Week{}, storage.ErrDuplicateWeek
		}
		return models.Week{}, fmt.Errorf("failed to commit week: %w", err)
	}
	return week, nil
}

func (s *Store) MarkCurrent(ctx context.Context, weekID string) (models.Week, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Week{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM weeks WHERE week_id = $1)", weekID).Scan(&exists); err != nil {
		return models.Week{}, err
	}
	if !exists {
		return models.Week{}, storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE weeks SET is_current = FALSE, version = version + 1, updated_at = $1
		WHERE is_current AND week_id <> $2`, now, weekID); err != nil {
		return models.Week{}, fmt.Errorf("failed to clear current week: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE weeks SET is_current = TRUE, version = version + 1, updated_at = $1
		WHERE week_id = $2 AND NOT is_current`, now, weekID); err != nil {
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
		INSERT INTO weeks (`+weekInsertColumns+`)
		VALUES ($1, $2::date, $3, $4, $5, $6, 1, $7, $8)`,
		week.WeekID, storage.DateKey(week.WeekStart), week.WeekEnd.UTC(), string(habits),
		week.Progress, week.IsCurrent, week.CreatedAt.UTC(), week.UpdatedAt.UTC(),
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
	row := s.db.QueryRowContext(ctx, "SELECT "+weekColumns+" FROM weeks WHERE week_id = $1", weekID)
	return notFound(scanWeek(row))
}

func (s *Store) GetCurrentWeek(ctx context.Context) (models.Week, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+weekColumns+" FROM weeks WHERE is_current")
	return notFound(scanWeek(row))
}

func (s *Store) SaveWeek(ctx context.Context, week models.Week) (models.Week, error) {
	habits, err := storage.MarshalEntries(week.Habits)
	if err != nil {
		return models.Week{}, err
	}
	week.UpdatedAt = time.Now().UTC()

	var version int64
	err = s.db.QueryRowContext(ctx, `
		UPDATE weeks SET habits = $1, progress = $2, version = version + 1, updated_at = $3
		WHERE week_id = $4 AND version = $5
		RETURNING version`,
		string(habits), week.Progress, week.UpdatedAt, week.WeekID, week.Version,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM weeks WHERE week_id = $1)", week.WeekID).Scan(&exists); err != nil {
			return models.Week{}, err
		}
		if !exists {
			return models.Week{}, storage.ErrNotFound
		}
		return models.Week{}, storage.ErrConflict
	}
	if err != nil {
		return models.Week{}, fmt.Errorf("failed to save week: %w", err)
	}

	week.Version = version
	return week, nil
}

func (s *Store) ListWeeks(ctx context.Context, q storage.WeekQuery) ([]models.Week, error) {
	query := "SELECT " + weekColumns + " FROM weeks"
	if q.PastOnly {
		query += " WHERE NOT is_current"
	}
	query += " ORDER BY week_start DESC OFFSET $1"

	skip := q.Skip
	if skip < 0 {
		skip = 0
	}
	args := []any{skip}
	if q.Limit > 0 {
		query += " LIMIT $2"
		args = append(args, q.Limit)
	}
	return s.queryWeeks(ctx, query, args...)
}

func (s *Store) CountWeeks(ctx context.Context, pastOnly bool) (int, error) {
	query := "SELECT count(*) FROM weeks"
	if pastOnly {
		query += " WHERE NOT is_current"
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
		WHERE week_start BETWEEN $1::date AND $2::date
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
	var weekStart string
	var habits []byte

	err := row.Scan(&w.WeekID, &weekStart, &w.WeekEnd, &habits, &w.Progress, &w.IsCurrent, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return models.Week{}, err
	}

	if w.WeekStart, err = storage.ParseDateKey(weekStart); err != nil {
		return models.Week{}, err
	}
	if w.Habits, err = storage.UnmarshalEntries(habits); err != nil {
		return models.Week{}, err
	}
	w.WeekEnd = w.WeekEnd.UTC()
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}

func notFound(w models.Week, err error) (models.Week, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return models.Week{}, storage.ErrNotFound
	}
	return w, err
}
