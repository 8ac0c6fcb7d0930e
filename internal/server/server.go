// Package server provides the HTTP surface of the handsign pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ayusman/handsign/internal/app"
	"github.com/ayusman/handsign/internal/server/api"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// StatusProvider reports pipeline counters.
type StatusProvider interface {
	Stats() app.Stats
}

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir string
	Status    StatusProvider
	Frames    *FrameStore
	Events    *EventHub
	Options   api.OptionsStore
	Viewport  api.ViewportStore
	Logger    *zap.SugaredLogger
	Clock     clock.Clock
}

// Server represents the HTTP server.
type Server struct {
	config Config
	logger *zap.SugaredLogger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}
	s := &Server{
		config: config,
		logger: config.Logger,
		mux:    http.NewServeMux(),
		start:  config.Clock.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.logger))
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/classifications", s.config.Events)
	}

	if s.config.Options != nil {
		s.mux.Handle("/api/options", api.NewOptionsHandler(s.config.Options, s.logger))
	}

	if s.config.Viewport != nil {
		s.mux.Handle("/api/viewport", api.NewViewportHandler(s.config.Viewport, s.logger))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string     `json:"status"`
	Uptime   string     `json:"uptime"`
	Pipeline *app.Stats `json:"pipeline,omitempty"`
}

// handleHealth handles GET requests to /api/health. A failed pipeline is
// reported with 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status: "ok",
		Uptime: s.config.Clock.Since(s.start).String(),
	}
	status := http.StatusOK
	if s.config.Status != nil {
		stats := s.config.Status.Stats()
		response.Pipeline = &stats
		if stats.State == app.StateFailed.String() {
			response.Status = stats.State
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warnw("failed to encode health response", "error", err)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Infow("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.config.Events != nil {
		s.config.Events.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
