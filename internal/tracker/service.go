// Package tracker is the week lifecycle engine: it materialises weeks from
// the habit catalog, keeps the current week in step with catalog edits and
// applies completion toggles.
package tracker

import (
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/storage"
)

type Service struct {
	store storage.Provider
	cal   *calendar.Calendar
	newID func() string
}

func NewService(store storage.Provider, cal *calendar.Calendar) *Service {
	return &Service{
		store: store,
		cal:   cal,
		newID: uuid.NewString,
	}
}

func (s *Service) Calendar() *calendar.Calendar {
	return s.cal
}

func (s *Service) Store() storage.Provider {
	return s.store
}

// storageErr translates store sentinels into domain kinds. Anything else
// becomes a StorageError.
func storageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.NotFound("%s: %v", op, err)
	case errors.IsClientError(err):
		return err
	default:
		return errors.Storage(op, err)
	}
}

func errNoCurrentWeek() error {
	return errors.NotFound("no current week exists")
}

func exhausted(op string, err error) error {
	return errors.Storage(op, fmt.Errorf("gave up after %d attempts: %w", maxAttempts, err))
}
