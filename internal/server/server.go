package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/camlsync/camlsync/internal/serverstore"
)

const shutdownTimeout = 10 * time.Second

// Server is the camlsync server process: the version store plus its HTTP
// surface.
type Server struct {
	config *Config
	store  *serverstore.Store
	http   *http.Server
}

// New constructs a Server against an already-initialized data directory
// (see serverstore.Store.Init).
func New(config *Config) (*Server, error) {
	store := serverstore.New(config.DataDir)
	if _, err := store.Config(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}

	handler := SetupRoutes(store)

	return &Server{
		config: config,
		store:  store,
		http: &http.Server{
			Addr:              config.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start runs the HTTP listener until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("camlsync server start", "addr", s.config.Addr)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("camlsync server stop")
	return nil
}

// Stop shuts the HTTP listener down directly, for tests and non-ctx callers.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
