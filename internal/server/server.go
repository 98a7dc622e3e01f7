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

	"MarketPulse/internal/dashboard"
	"MarketPulse/internal/model"
	"MarketPulse/internal/recorder"
)

// Dashboard is the view layer served over HTTP.
type Dashboard interface {
	Instruments() []model.Instrument
	Thresholds() []model.Threshold
	Overview(ctx context.Context, windowDays int) (*dashboard.Overview, error)
	Compare(ctx context.Context, symbols []model.Symbol, windowDays int) (*dashboard.CompareView, error)
	Macro(ctx context.Context, windowDays int) (*dashboard.MacroView, error)
	Insights(ctx context.Context, windowDays int) (*dashboard.Insights, error)
	Refresh(ctx context.Context) (*model.Snapshot, error)
	History(limit int) ([]recorder.PassSummary, error)
	AlertHistory(symbol model.Symbol, limit int) ([]recorder.AlertEntry, error)
}

// Config holds server configuration
type Config struct {
	Port      int
	Log       zerolog.Logger
	Dashboard Dashboard
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	port      int
	dashboard Dashboard
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		port:      cfg.Port,
		dashboard: cfg.Dashboard,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// a cold fetch walks every symbol sequentially
	s.router.Use(middleware.Timeout(75 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/instruments", s.handleInstruments)
		r.Get("/thresholds", s.handleThresholds)
		r.Get("/overview", s.handleOverview)
		r.Get("/compare", s.handleCompare)
		r.Get("/macro", s.handleMacro)
		r.Get("/insights", s.handleInsights)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/history", s.handleHistory)
		r.Get("/alerts/{symbol}/history", s.handleAlertHistory)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
