// Package server exposes the tracker over a JSON HTTP API.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/logger"
	"github.com/julianstephens/weeklit/internal/tracker"
)

// Config holds the listener and routing settings.
type Config struct {
	Addr            string
	BasePath        string
	FrontendURL     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = constants.DefaultAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = constants.DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = constants.DefaultWriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	if c.BasePath == "/" {
		c.BasePath = ""
	}
	return c
}

type Server struct {
	cfg        Config
	svc        *tracker.Service
	httpServer *http.Server
}

func New(svc *tracker.Service, cfg Config) *Server {
	cfg = cfg.withDefaults()
	s := &Server{cfg: cfg, svc: svc}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	base := s.cfg.BasePath

	mux.HandleFunc("GET "+base+"/health", s.handleHealth)

	mux.HandleFunc("POST "+base+"/habits", s.handleCreateHabit)
	mux.HandleFunc("GET "+base+"/habits", s.handleListHabits)
	mux.HandleFunc("PUT "+base+"/habits/{id}", s.handleUpdateHabit)
	mux.HandleFunc("DELETE "+base+"/habits/{id}", s.handleDeleteHabit)

	// The week routes answer under both prefixes.
	for _, prefix := range []string{base + "/week", base + "/weeks"} {
		mux.HandleFunc("GET "+prefix+"/current", s.handleCurrentWeek)
		mux.HandleFunc("POST "+prefix+"/toggle", s.handleToggle)
		mux.HandleFunc("GET "+prefix+"/calendar/{year}/{month}", s.handleCalendar)
		mux.HandleFunc("GET "+prefix+"/date/{date}", s.handleDate)
		mux.HandleFunc("GET "+prefix+"/history", s.handleHistory)
		mux.HandleFunc("GET "+prefix+"/stats", s.handleStats)
		mux.HandleFunc("GET "+prefix+"/{weekId}", s.handleWeek)
	}

	return chain(mux,
		recoverPanics,
		logRequests,
		cors(s.cfg.FrontendURL),
	)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger.Info("Server listening", "addr", ln.Addr().String(), "basePath", s.cfg.BasePath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
