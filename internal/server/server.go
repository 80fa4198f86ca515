// Package server assembles the chat engine, hub, event bus and HTTP router
// into a runnable service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tyrowin/roomchat/internal/activity"
	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/internal/pubsub"
	"github.com/labstack/echo/v4"
)

// Server holds the dependencies of one running chat service.
type Server struct {
	cfg        Config
	echo       *echo.Echo
	hub        *Hub
	engine     *chat.Engine
	bus        *pubsub.WatermillBridge
	tracker    *activity.Tracker
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a Server from cfg. Nothing runs until Start.
func New(cfg Config) (*Server, error) {
	cfg = cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "server")
	bus := pubsub.NewWatermillBridge()
	hub := NewHub()
	engine := chat.NewEngine(hub,
		chat.WithHistoryLimit(cfg.HistoryLimit),
		chat.WithInitialPageSize(cfg.InitialPageSize),
		chat.WithDefaultPageSize(cfg.DefaultPageSize),
		chat.WithRoomSoftLimit(cfg.RoomSoftLimit),
		chat.WithPublisher(bus),
	)
	hub.SetDispatcher(engine)

	tracker := activity.NewTracker()
	origins := newOriginPolicy(cfg.AllowedOrigins, logger)
	handler := NewHandler(engine, hub, tracker, cfg, origins)

	e := SetupRoutes(handler, origins)

	return &Server{
		cfg:        cfg,
		echo:       e,
		hub:        hub,
		engine:     engine,
		bus:        bus,
		tracker:    tracker,
		httpServer: CreateServer(cfg.Port, e),
		logger:     logger,
	}, nil
}

// Handler returns the HTTP handler, for mounting under httptest or another
// listener.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Engine returns the chat engine.
func (s *Server) Engine() *chat.Engine {
	return s.engine
}

// Config returns the sanitized configuration the server runs with.
func (s *Server) Config() Config {
	return s.cfg
}

// Start subscribes the activity tracker and launches the hub loop. It does
// not listen; use ListenAndServe or Handler for that.
func (s *Server) Start(ctx context.Context) error {
	if err := s.tracker.Start(ctx, s.bus, chat.Topics); err != nil {
		return fmt.Errorf("start activity tracker: %w", err)
	}
	go s.hub.Run()
	s.logger.Info("Hub started and ready to manage WebSocket connections")
	return nil
}

// ListenAndServe serves HTTP on the configured port until Shutdown.
func (s *Server) ListenAndServe() error {
	if err := StartServer(s.httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting HTTP requests, closes every client, and then
// closes the event bus.
func (s *Server) Shutdown(_ context.Context) error {
	var errs []error

	if err := ShutdownServer(s.httpServer, s.cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}

	if err := s.hub.Shutdown(s.cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("hub: %w", err))
	}

	if err := s.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}

	return errors.Join(errs...)
}
