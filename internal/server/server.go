// Package server provides the HTTP server and routing for TradeKeeper.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/tradekeeper/tradekeeper/internal/database"
	accounthandlers "github.com/tradekeeper/tradekeeper/internal/modules/account/handlers"
	tradehandlers "github.com/tradekeeper/tradekeeper/internal/modules/trade/handlers"
)

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	DB              *database.DB
	DataDir         string
	Port            int
	DevMode         bool
	AccountHandlers *accounthandlers.Handler
	TradeHandlers   *tradehandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router          *chi.Mux
	server          *http.Server
	log             zerolog.Logger
	systemHandlers  *SystemHandlers
	accountHandlers *accounthandlers.Handler
	tradeHandlers   *tradehandlers.Handler
	port            int
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		log:             cfg.Log.With().Str("component", "server").Logger(),
		systemHandlers:  NewSystemHandlers(cfg.Log, cfg.DataDir, cfg.DB),
		accountHandlers: cfg.AccountHandlers,
		tradeHandlers:   cfg.TradeHandlers,
		port:            cfg.Port,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	allowedOrigins := []string{"https://*", "http://*"}
	if devMode {
		allowedOrigins = []string{"*"}
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.accountHandlers.RegisterRoutes(r)
		s.tradeHandlers.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/info", s.systemHandlers.HandleSystemInfo)
		})
	})
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests. Blocks until the server
// stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.log.Info().Msg("HTTP server shutting down")

	return s.server.Shutdown(ctx)
}
