package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hostelhub/internal/common/config"
	"hostelhub/internal/common/logging"
	"hostelhub/internal/common/metrics"
	"hostelhub/internal/common/types"
	rentalapi "hostelhub/internal/rental/api"
	"hostelhub/internal/rental/application"
	"hostelhub/internal/rental/domain"
	"hostelhub/internal/rental/infrastructure/memory"
	"hostelhub/internal/rental/infrastructure/postgres"
)

// dataStore is the combined interface the application services need.
type dataStore interface {
	domain.AtomicExecutor
	domain.Repositories
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Generate correlation ID for startup
	startupCtx := logging.WithCorrelationID(context.Background(), types.NewCorrelationID())

	logging.InfoContext(startupCtx, "Starting HostelHub",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"store_backend", cfg.StoreBackend,
		"log_level", cfg.LogLevel,
	)

	// Setup the rental datastore
	var (
		store dataStore
		pool  *pgxpool.Pool
	)
	switch cfg.StoreBackend {
	case "memory":
		store = memory.NewDataStore()
	default:
		pool, err = cfg.NewPostgresPool(startupCtx)
		if err != nil {
			logging.ErrorContext(startupCtx, "Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = postgres.NewDataStore(pool)
	}

	// Setup HTTP server
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", healthHandler)

	// Ready check endpoint (checks dependencies)
	mux.HandleFunc("GET /ready", readyHandler(cfg, pool))

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	// Setup Rental context
	catalogService := application.NewCatalogService(store)
	bookingService := application.NewBookingService(store)
	paymentService := application.NewPaymentService(store)
	handler := rentalapi.NewHandler(catalogService, bookingService, paymentService)
	handler.RegisterRoutes(mux)

	logging.InfoContext(startupCtx, "Rental context initialized")

	// Middleware chain: metrics -> correlation -> identity -> handler
	chain := metrics.Middleware(
		rentalapi.WithCorrelationID(
			rentalapi.WithIdentity(
				requestLogger(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logging.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logging.Info("Server stopped")
}

// requestTimeout is the maximum time allowed for processing a single request.
const requestTimeout = 5 * time.Second

// requestLogger adds a request timeout and logs each request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		logging.InfoContext(ctx, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// healthHandler returns basic health status.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// readyHandler checks if all dependencies are available.
// With the memory backend there is nothing to check.
func readyHandler(cfg *config.Config, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]any{
					"status": "not ready",
					"error":  "database unreachable",
				})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ready",
			"environment": cfg.Environment,
		})
	}
}
