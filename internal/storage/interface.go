package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/weeklit/internal/models"
)

var (
	// ErrNotFound is returned when a habit or week does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateWeek is returned by CreateWeek when the weekId or weekStart
	// is already taken.
	ErrDuplicateWeek = errors.New("week already exists")
	// ErrConflict is returned by SaveWeek when the stored version moved on.
	ErrConflict = errors.New("week was modified concurrently")
)

// WeekQuery selects a page of weeks ordered by weekStart, newest first.
// A non-positive Limit means no limit.
type WeekQuery struct {
	PastOnly bool
	Skip     int
	Limit    int
}

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Habits are listed in insertion order.
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	ListHabits(ctx context.Context, activeOnly bool) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) error
	CountHabits(ctx context.Context, activeOnly bool) (int, error)

	// CreateWeek clears every current flag and inserts week as the current
	// week in one step. On ErrDuplicateWeek nothing is changed.
	CreateWeek(ctx context.Context, week models.Week) (models.Week, error)
	// MarkCurrent moves the current flag onto an existing week, clearing it
	// everywhere else in one step. It repairs a week that was stored but
	// never flagged.
	MarkCurrent(ctx context.Context, weekID string) (models.Week, error)
	// ImportWeek inserts week exactly as given, current flag included.
	ImportWeek(ctx context.Context, week models.Week) error
	GetWeek(ctx context.Context, weekID string) (models.Week, error)
	GetCurrentWeek(ctx context.Context) (models.Week, error)
	// SaveWeek writes habits and progress if the stored version still
	// equals week.Version, and returns the week with its new version.
	SaveWeek(ctx context.Context, week models.Week) (models.Week, error)
	ListWeeks(ctx context.Context, q WeekQuery) ([]models.Week, error)
	CountWeeks(ctx context.Context, pastOnly bool) (int, error)
	// WeeksBetween returns weeks overlapping the civil dates [from, to],
	// oldest first.
	WeeksBetween(ctx context.Context, from, to time.Time) ([]models.Week, error)

	// Utils
	GetConfigPath() string
}
