package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/pidfile"
	"github.com/julianstephens/weeklit/internal/scheduler"
	"github.com/julianstephens/weeklit/internal/server"
)

type ServeCmd struct {
	Addr       string `help:"Listen address, overriding server.addr."`
	NoSchedule bool   `help:"Do not run the weekly rollover scheduler."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	addr := ctx.Config.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return c.serve(runCtx, ctx, ln)
}

func (c *ServeCmd) serve(runCtx context.Context, ctx *cli.Context, ln net.Listener) error {
	lock, err := pidfile.Acquire(pidfile.Path(ctx.Config.Dir()), ln.Addr().String())
	if err != nil {
		ln.Close()
		if errors.Is(err, pidfile.ErrAlreadyRunning) {
			return fmt.Errorf("%w; stop it first or check 'weeklit status'", err)
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release lockfile", "error", err)
		}
	}()

	if week, err := ctx.Service.EnsureCurrentWeek(runCtx); err != nil {
		logger.Error("Failed to ensure current week at startup", "error", err)
	} else {
		logger.Info("Current week ready", "weekId", week.WeekID, "habits", len(week.Habits))
	}

	schedCtx, cancel := context.WithCancel(runCtx)
	defer cancel()
	var wg sync.WaitGroup
	if ctx.Config.Schedule.Enabled && !c.NoSchedule {
		var hooks []scheduler.Hook
		if ctx.IsSQLite() && ctx.Config.Backup.Enabled {
			hooks = append(hooks, ctx.PerformAutomaticBackup)
		}
		sched := scheduler.New(ctx.Service, ctx.Service.Calendar(), ctx.Config.Schedule.Offset, hooks...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(schedCtx)
		}()
	}

	srv := server.New(ctx.Service, server.Config{
		Addr:            ln.Addr().String(),
		BasePath:        ctx.Config.Server.BasePath,
		FrontendURL:     ctx.Config.Server.FrontendURL,
		ReadTimeout:     ctx.Config.Server.ReadTimeout,
		WriteTimeout:    ctx.Config.Server.WriteTimeout,
		ShutdownTimeout: ctx.Config.Server.ShutdownTimeout,
	})
	err = srv.Serve(runCtx, ln)
	cancel()
	wg.Wait()
	return err
}

// StatusCmd reports whether a server holds the lock for this data directory.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	path := pidfile.Path(ctx.Config.Dir())
	info, ok := pidfile.Running(path)
	if !ok {
		ctx.Println("Server is not running.")
		return nil
	}
	ctx.Printf("Server is running (pid %d) on %s\n", info.PID, info.Addr)
	return nil
}
