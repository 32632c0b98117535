// Package server wires the NPRI API together and manages the HTTP server
// lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/cache"
	"github.com/npri-watch/npri-api/internal/config"
	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/database"
	"github.com/npri-watch/npri-api/internal/handlers"
	"github.com/npri-watch/npri-api/internal/query"
	"github.com/npri-watch/npri-api/internal/report"
	"github.com/npri-watch/npri-api/internal/service"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	DataHandler *handlers.DataHandler
}

// Server represents the API server.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db is the database connection. It is nil when the server was built
	// around another Querier.
	Db *database.DB

	// Cache stores encoded query results
	Cache cache.Cache

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	router     chi.Router
	httpServer *http.Server
}

// NewServer connects to the database and the result cache and builds the
// routes.
//
// Initialization order: database → cache → services → handlers → routes.
func NewServer(ctx context.Context, cfg *config.AppConfig) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	c, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up cache: %w", err)
	}

	s, err := NewWithQuerier(cfg, db, c)
	if err != nil {
		db.Close()
		_ = c.Close()
		return nil, err
	}
	s.Db = db

	return s, nil
}

// NewWithQuerier builds a server around an existing Querier and cache.
func NewWithQuerier(cfg *config.AppConfig, db database.Querier, c cache.Cache) (*Server, error) {
	if c == nil {
		c = cache.Noop{}
	}

	s := &Server{
		Config: cfg,
		Cache:  c,
	}

	if err := s.setupHandlers(db); err != nil {
		return nil, fmt.Errorf("failed to set up handlers: %w", err)
	}

	s.SetupRoutes()

	idle := cfg.Server.IdleTimeout
	if idle <= 0 {
		idle = constants.DefaultIdleTimeout
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  idle,
	}

	return s, nil
}

// setupHandlers builds the query service and the handlers on top of it.
func (s *Server) setupHandlers(db database.Querier) error {
	if db == nil {
		return errors.New("database not initialized")
	}

	renderer, err := report.New()
	if err != nil {
		return err
	}

	dbService := service.NewDatabaseService(
		query.NewBuilder(query.DefaultRegistry()),
		db,
		s.Cache,
		service.Options{
			CacheTTL:      s.Config.Cache.TTL,
			MaxCacheBytes: s.Config.Cache.MaxBytes,
			Passthrough:   s.Config.Passthrough.Enabled,
		},
	)

	s.Handlers = &Handlers{
		DataHandler: handlers.NewDataHandler(dbService, renderer, s.Config.App),
	}

	return nil
}

// Start starts the HTTP server and blocks until it fails or a shutdown
// signal (SIGINT, SIGTERM) is received, then shuts down gracefully.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.httpServer.Addr).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.Config.Server.ShutdownTimeout > 0 {
		return s.Config.Server.ShutdownTimeout
	}
	return constants.DefaultShutdownTimeout
}

// Shutdown waits for in-flight requests, then closes the database and cache.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")

	s.Db.Close()

	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close result cache")
		}
	}

	return nil
}
