// Package clitest builds command contexts over throwaway SQLite databases.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/config"
	"github.com/julianstephens/weeklit/internal/storage/sqlite"
	"github.com/julianstephens/weeklit/internal/tracker"
)

// Env is a command context whose output is captured and whose clock only
// moves when told to.
type Env struct {
	*cli.Context
	Buf   *bytes.Buffer
	Dir   string
	Store *sqlite.Store

	now time.Time
}

// New returns an Env over an initialized database with the clock at now.
func New(t *testing.T, now time.Time) *Env {
	t.Helper()
	env := Uninitialized(t, now)
	if err := env.Store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	return env
}

// Uninitialized is like New but leaves the database file uncreated.
func Uninitialized(t *testing.T, now time.Time) *Env {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.Database.Path = filepath.Join(dir, "weeklit.db")
	cfg.Log.Dir = dir

	store := sqlite.NewStore(cfg.Database.Path)
	t.Cleanup(func() {
		store.Close()
	})

	env := &Env{Buf: &bytes.Buffer{}, Dir: dir, Store: store, now: now}
	cal := calendar.New(time.UTC).WithClock(func() time.Time { return env.now })
	env.Context = &cli.Context{
		Config:  cfg,
		Store:   store,
		Service: tracker.NewService(store, cal),
		Out:     env.Buf,
	}
	return env
}

// Advance moves the clock forward by d.
func (e *Env) Advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// Output returns and clears everything printed so far.
func (e *Env) Output() string {
	s := e.Buf.String()
	e.Buf.Reset()
	return s
}
