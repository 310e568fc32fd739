package system

import (
	"fmt"

	"github.com/julianstephens/weeklit/internal/cli"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(cli.Migrator)
	if !ok {
		ctx.Printf("The %s driver has no schema migrations; indexes are created on startup.\n", ctx.Config.Database.Driver)
		return nil
	}

	if err := m.Open(ctx.Ctx()); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer ctx.Store.Close()

	runner, err := m.Runner()
	if err != nil {
		return err
	}

	count, err := runner.ApplyMigrations(ctx.Ctx(), func(msg string) {
		ctx.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
