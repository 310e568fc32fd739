package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/storage/postgres"
	"github.com/julianstephens/weeklit/internal/tracker"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing SQLite database before initialization."`
	Source string `help:"SQLite path or postgres/mongo connection string to copy habits and weeks from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if !ctx.IsSQLite() {
			return fmt.Errorf("--force is only supported for the sqlite driver")
		}
		if err := c.removeExisting(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(ctx.Ctx()); err != nil {
		return err
	}
	ctx.Printf("Initialized weeklit storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		if err := c.transfer(ctx); err != nil {
			return fmt.Errorf("data transfer failed: %w", err)
		}
	}
	return nil
}

func (c *InitCmd) removeExisting(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	if c.Source != "" {
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}

func (c *InitCmd) transfer(ctx *cli.Context) error {
	driver := cli.DriverFor(c.Source)
	if driver == constants.DriverPostgres {
		if _, err := postgres.ValidateConnString(c.Source); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("source connection string contains embedded credentials; use environment variables or .pgpass instead")
			}
			return err
		}
	}

	src, err := cli.NewStore(driver, c.Source, ctx.Config.Database.Name)
	if err != nil {
		return err
	}
	runCtx := ctx.Ctx()
	if err := src.Load(runCtx); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	stats, err := tracker.Transfer(runCtx, src, ctx.Store)
	if err != nil {
		return err
	}
	ctx.Printf("  Copied %d habits (%d already present)\n", stats.Habits, stats.HabitsSkipped)
	ctx.Printf("  Copied %d weeks (%d already present)\n", stats.Weeks, stats.WeeksSkipped)
	ctx.Println("Transfer completed successfully!")
	return nil
}
