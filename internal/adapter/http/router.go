package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/opsledger/internal/adapter/http/handler"
	"github.com/iho/opsledger/internal/adapter/http/middleware"
	"github.com/iho/opsledger/internal/infrastructure/metrics"
	"github.com/iho/opsledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AssetHandler    *handler.AssetHandler
	RentHandler     *handler.RentHandler
	BillHandler     *handler.BillHandler
	TransferHandler *handler.TransferHandler
	EmployeeHandler *handler.EmployeeHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	// IdempotencyStore is optional; without it Idempotency-Key is ignored.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	Logger zerolog.Logger
	// Metrics and MetricsHandler are optional.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		// Assets
		r.Route("/assets", func(r chi.Router) {
			r.Post("/", cfg.AssetHandler.Purchase)
			r.Get("/{id}", cfg.AssetHandler.Get)
			r.Post("/{id}/sale", cfg.AssetHandler.Sell)
			r.Post("/{id}/move", cfg.AssetHandler.Move)
			r.Get("/{id}/history", cfg.AssetHandler.History)
		})

		r.Post("/rent-payments", cfg.RentHandler.Pay)
		r.Post("/bills/{id}/payment", cfg.BillHandler.Pay)
		r.Post("/transfers", cfg.TransferHandler.Create)
		r.Post("/employees", cfg.EmployeeHandler.Create)

		// Accounts
		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/balance", cfg.LedgerHandler.Balance)
			r.Get("/verify", cfg.LedgerHandler.Verify)
		})
	})

	return r
}
