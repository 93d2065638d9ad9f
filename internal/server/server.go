// Package server exposes the engine over HTTP: one-shot profile
// calculation, batch scans, health, and the alert WebSocket.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/scan"
	"github.com/dgnsrekt/gex-monitor/internal/ws"
)

type Server struct {
	scanner   *scan.Scanner
	hub       *ws.Hub
	version   string
	startedAt time.Time
	logger    *zap.Logger

	now func() time.Time
}

func NewServer(scanner *scan.Scanner, hub *ws.Hub, version string, logger *zap.Logger) *Server {
	return &Server{
		scanner:   scanner,
		hub:       hub,
		version:   version,
		startedAt: time.Now(),
		logger:    logger,
		now:       time.Now,
	}
}

// UseClock overrides the time source used when generating signals for
// inline-contract calculations. The late-day pin gate reads the hour,
// which must be exchange-local.
func (s *Server) UseClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func NewRouter(server *Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	r.Route("/api", func(api chi.Router) {
		api.Post("/calculate", server.handleCalculate)
		api.Post("/scan", server.handleScan)
		api.Get("/health", server.handleHealth)
	})

	r.Get("/ws/alerts", server.hub.Handle)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r)
		})
	}
}
