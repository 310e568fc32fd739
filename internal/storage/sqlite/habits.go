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

const habitColumns = "id, title, scheduled_days, is_active, is_compulsory, color, created_at, updated_at"

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	days, err := storage.MarshalDays(habit.ScheduledDays)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.Title, string(days), habit.IsActive, habit.IsCompulsory, habit.Color,
		habit.CreatedAt.UTC().Format(timeLayout), habit.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, storage.ErrNotFound
	}
	return h, err
}

func (s *Store) ListHabits(ctx context.Context, activeOnly bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	days, err := storage.MarshalDays(habit.ScheduledDays)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE habits
		SET title = ?, scheduled_days = ?, is_active = ?, is_compulsory = ?, color = ?, updated_at = ?
		WHERE id = ?`,
		habit.Title, string(days), habit.IsActive, habit.IsCompulsory, habit.Color,
		habit.UpdatedAt.UTC().Format(timeLayout), habit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountHabits(ctx context.Context, activeOnly bool) (int, error) {
	query := "SELECT count(*) FROM habits"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var days, createdAt, updatedAt string

	if err := row.Scan(&h.ID, &h.Title, &days, &h.IsActive, &h.IsCompulsory, &h.Color, &createdAt, &updatedAt); err != nil {
		return models.Habit{}, err
	}

	var err error
	if h.ScheduledDays, err = storage.UnmarshalDays([]byte(days)); err != nil {
		return models.Habit{}, err
	}
	if h.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if h.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return h, nil
}
