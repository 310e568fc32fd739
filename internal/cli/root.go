package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/weeklit/internal/backup"
	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/config"
	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/migration"
	"github.com/julianstephens/weeklit/internal/storage"
	"github.com/julianstephens/weeklit/internal/storage/mongo"
	"github.com/julianstephens/weeklit/internal/storage/postgres"
	"github.com/julianstephens/weeklit/internal/storage/sqlite"
	"github.com/julianstephens/weeklit/internal/tracker"
)

type Context struct {
	Config  *config.Config
	Store   storage.Provider
	Service *tracker.Service

	// Out and In default to stdout and stdin.
	Out io.Writer
	In  io.Reader

	// Background is the context commands run under. Defaults to
	// context.Background.
	Background context.Context
}

// Migrator is implemented by the SQL stores.
type Migrator interface {
	Open(ctx context.Context) error
	Runner() (*migration.Runner, error)
}

// NewContext wires the tracker service for cfg on top of store.
func NewContext(cfg *config.Config, store storage.Provider) (*Context, error) {
	cal, err := calendar.NewForZone(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &Context{
		Config:  cfg,
		Store:   store,
		Service: tracker.NewService(store, cal),
	}, nil
}

// OpenStore returns an unopened store for the configured driver.
func OpenStore(cfg *config.Config) (storage.Provider, error) {
	conn, err := cfg.ResolveConnection()
	if err != nil {
		return nil, err
	}
	return NewStore(cfg.Database.Driver, conn, cfg.Database.Name)
}

// NewStore builds a store for driver. conn is a file path for sqlite and a
// connection string otherwise.
func NewStore(driver, conn, dbName string) (storage.Provider, error) {
	switch driver {
	case constants.DriverSQLite:
		return sqlite.NewStore(conn), nil
	case constants.DriverPostgres:
		return postgres.New(conn), nil
	case constants.DriverMongo:
		return mongo.New(conn, dbName), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// DriverFor guesses the driver from a path or connection string.
func DriverFor(conn string) string {
	switch {
	case strings.HasPrefix(conn, "postgres://"), strings.HasPrefix(conn, "postgresql://"),
		strings.Contains(conn, "host="):
		return constants.DriverPostgres
	case strings.HasPrefix(conn, "mongodb://"), strings.HasPrefix(conn, "mongodb+srv://"):
		return constants.DriverMongo
	default:
		return constants.DriverSQLite
	}
}

func (c *Context) IsSQLite() bool {
	return c.Config.Database.Driver == constants.DriverSQLite
}

// BackupManager returns the backup manager for the SQLite database.
func (c *Context) BackupManager() (*backup.Manager, error) {
	if !c.IsSQLite() {
		return nil, fmt.Errorf("backups are only supported for the sqlite driver (current: %s)", c.Config.Database.Driver)
	}
	return backup.NewManager(c.Store.GetConfigPath()), nil
}

// PerformAutomaticBackup snapshots the SQLite database. It runs before each
// weekly rollover.
func (c *Context) PerformAutomaticBackup(ctx context.Context) error {
	mgr, err := c.BackupManager()
	if err != nil {
		return err
	}
	_, err = mgr.Create(ctx)
	return err
}

func (c *Context) Ctx() context.Context {
	if c.Background == nil {
		return context.Background()
	}
	return c.Background
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Print(args ...any) {
	fmt.Fprint(c.out(), args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// Confirm asks a yes/no question and reports whether the answer was yes.
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
