package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/cli/backups"
	"github.com/julianstephens/weeklit/internal/cli/habits"
	"github.com/julianstephens/weeklit/internal/cli/system"
	"github.com/julianstephens/weeklit/internal/cli/weeks"
	"github.com/julianstephens/weeklit/internal/config"
	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/storage"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path. Defaults to $WEEKLIT_CONFIG or ~/.config/weeklit/config.yaml." type:"path"`
	Timezone string `help:"Anchor time zone (IANA name), overriding the config."`
	Debug    bool   `help:"Enable debug logging to stderr."`

	Serve   system.ServeCmd   `cmd:"" help:"Run the HTTP API and the weekly rollover scheduler."`
	Status  system.StatusCmd  `cmd:"" help:"Show whether a server is running."`
	Init    system.InitCmd    `cmd:"" help:"Initialize weeklit storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage connection strings in the OS keyring."`
	Habit   habits.HabitCmd   `cmd:"" help:"Manage habits."`
	Week    weeks.WeekCmd     `cmd:"" help:"Track the current week and browse history." default:"1"`
	Backup  backups.BackupCmd `cmd:"" help:"Manage SQLite database backups."`
}

// Commands that never touch the database.
var storeless = map[string]bool{
	"keyring": true,
	"status":  true,
}

// Commands that open the store themselves, without the schema check.
var selfLoading = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Weekly habit tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	if err := run(ctx); err != nil {
		errors.Fatal(err)
	}
}

func run(ctx *kong.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Timezone != "" {
		cfg.Timezone = CLI.Timezone
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	command := strings.Fields(ctx.Command())[0]
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		ConfigDir: cfg.Dir(),
		Stderr:    command == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	if src := cfg.Source(); src != "" {
		logger.Debug("Loaded config", "path", src)
	}

	var store storage.Provider
	if !storeless[command] {
		store, err = cli.OpenStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	appCtx, err := cli.NewContext(cfg, store)
	if err != nil {
		return err
	}

	if store != nil && !selfLoading[command] {
		if err := store.Load(appCtx.Ctx()); err != nil {
			return err
		}
	}

	return ctx.Run(appCtx)
}
