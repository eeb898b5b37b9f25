// Package webapp provides the HTTP dashboard: JSON views of the tracked
// sightings, a webhook for incoming reports, and the manual remove /
// send-alert actions.
package webapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mwatts/sightwatch/internal"
)

// Server wires the dashboard routes to the core components. Handlers get
// their dependencies injected here; none of them reach for globals.
type Server struct {
	registry  *internal.Registry
	scheduler *internal.Scheduler
	pipeline  *internal.Pipeline
	notifier  *internal.Notifier
	mapPath   string
	logger    *slog.Logger
	http      *http.Server
}

func New(addr string, registry *internal.Registry, scheduler *internal.Scheduler,
	pipeline *internal.Pipeline, notifier *internal.Notifier, mapPath string, logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		registry:  registry,
		scheduler: scheduler,
		pipeline:  pipeline,
		notifier:  notifier,
		mapPath:   mapPath,
		logger:    logger,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the route table. Method+path to handler, nothing implicit.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/sightings", s.handleListSightings)
	r.Post("/api/v1/reports", s.handleSubmitReport)
	r.Delete("/api/v1/sightings/{id}", s.handleRemoveSighting)
	r.Post("/api/v1/alerts/send", s.handleSendSummary)
	r.Get("/map.png", s.handleMapImage)

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info("dashboard listening", "addr", s.http.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
