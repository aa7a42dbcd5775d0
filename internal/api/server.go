package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, deps Deps) *Server {
	handler := NewHandler(deps)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/api", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Receivable analysis
		r.Post("/receivables/analyze", handler.AnalyzeReceivables)
		r.Get("/receivables/metrics", handler.ReceivableMetrics)

		// Buyer matching
		r.Post("/matching/allocate", handler.Allocate)
		r.Post("/matching/commit", handler.CommitAllocations)
		r.Get("/matching/buyers", handler.ListBuyers)
		r.Get("/matching/metrics", handler.MatchingMetrics)

		// Compliance verification
		r.Get("/compliance/verify/{id}", handler.VerifyCompliance)
		r.Get("/compliance/status/{id}", handler.ComplianceStatus)
		r.Post("/compliance/bulk-verify", handler.BulkVerify)
		r.Get("/compliance/metrics", handler.ComplianceMetrics)

		// Supplier origination
		r.Get("/origination/suppliers", handler.ListSuppliers)
		r.Post("/origination/score", handler.ScoreLead)
		r.Get("/origination/metrics", handler.OriginationMetrics)

		// Screening rule management
		r.Get("/screening/rules", handler.ListScreeningRules)
		r.Get("/screening/rules/{id}", handler.GetScreeningRule)
		r.Post("/screening/rules", handler.CreateScreeningRule)
		r.Post("/screening/rules/reload", handler.ReloadScreeningRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
