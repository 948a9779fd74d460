package billing_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/handler"
	"github.com/residential-billing-ledger/internal/billing_api/service"
	"github.com/residential-billing-ledger/internal/config"
	"github.com/rs/cors"
)

// Services are the application services behind the HTTP handlers
type Services struct {
	Residents service.ResidentService
	Ledger    service.LedgerService
	Payments  service.PaymentService
	Expenses  service.ExpenseService
	Activity  service.ActivityService

	// Readiness probes keyed by dependency name, run by GET /ready.
	Readiness map[string]func(ctx context.Context) error
}

// Server owns the HTTP listener and its shutdown
type Server struct {
	logger          *slog.Logger
	httpServer      *http.Server
	httpRouter      *gin.Engine
	shutdownTimeout time.Duration
}

// NewServer builds the gin engine, wraps it with CORS and binds it to the configured port
func NewServer(log *slog.Logger, cfg *config.Config, svc Services) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	httpRouter := gin.New()
	httpRouter.MaxMultipartMemory = cfg.Uploads.MaxRequestBytes

	err := setupRouter(log, httpRouter, handlers{
		residents: handler.NewResidentHandler(log, svc.Residents),
		ledger:    handler.NewLedgerHandler(log, svc.Ledger, svc.Activity),
		payments:  handler.NewPaymentHandler(log, svc.Payments),
		expenses:  handler.NewExpenseHandler(log, svc.Expenses, cfg.Uploads.MaxRequestBytes),
		readiness: svc.Readiness,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: false,
	}).Handler(httpRouter)

	return &Server{
		logger:     log,
		httpRouter: httpRouter,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      corsHandler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// Handler exposes the CORS-wrapped router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests, bounded by the configured shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
