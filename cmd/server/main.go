// Command server runs the bookhold HTTP service: a reservation coordinator
// and catalog over either the in-memory engine or the Postgres engine,
// selected with BOOKHOLD_ENGINE.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/averbeck/bookhold/catalog"
	"github.com/averbeck/bookhold/config"
	"github.com/averbeck/bookhold/httpapi"
	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/reservation/memoryengine"
	"github.com/averbeck/bookhold/reservation/oteladapters"
	"github.com/averbeck/bookhold/reservation/postgresengine"
	"github.com/averbeck/bookhold/reservation/promadapters"
)

const shutdownTimeout = 10 * time.Second

// storageEngine is the full persistence surface both engines implement.
type storageEngine interface {
	reservation.ItemRepository
	reservation.ReservationRepository
	catalog.Store
}

func main() {
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := oteladapters.NewSlogLogger(slogLogger)
	contextualLogger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(os.Stdout, nil))
	metrics := promadapters.NewMetricsCollector(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildEngine(ctx, contextualLogger, metrics)
	if err != nil {
		slogLogger.Error("failed to initialize storage engine", "error", err.Error())
		os.Exit(1)
	}
	defer closeStore()

	coordinator, err := reservation.NewCoordinator(
		store,
		store,
		reservation.WithContextualLogger(contextualLogger),
		reservation.WithMetrics(metrics),
	)
	if err != nil {
		slogLogger.Error("failed to build coordinator", "error", err.Error())
		os.Exit(1)
	}

	catalogService := catalog.NewService(store, catalog.WithLogger(logger))

	if config.StartupAudit() {
		if auditErr := runStartupAudit(ctx, store, store, slogLogger); auditErr != nil {
			os.Exit(1)
		}
	}

	server := httpapi.NewServer(
		coordinator,
		catalogService,
		store,
		store,
		httpapi.WithLogger(logger),
		httpapi.WithMetricsHandler(promhttp.Handler()),
	)

	httpServer := &http.Server{
		Addr:    config.HTTPAddr(),
		Handler: server.Router(),
	}

	go func() {
		slogLogger.Info("server listening", "addr", httpServer.Addr, "engine", config.Engine())

		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slogLogger.Error("server failed", "error", serveErr.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		slogLogger.Error("server shutdown failed", "error", shutdownErr.Error())
	}

	slogLogger.Info("server stopped")
}

// buildEngine creates the storage engine selected by BOOKHOLD_ENGINE and
// returns it together with its cleanup function.
func buildEngine(
	ctx context.Context,
	contextualLogger reservation.ContextualLogger,
	metrics reservation.MetricsCollector,
) (storageEngine, func(), error) {

	switch engine := config.Engine(); engine {
	case "memory":
		return memoryengine.NewStore(), func() {}, nil

	case "postgres":
		pool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig(config.DatabaseURL()))
		if err != nil {
			return nil, nil, err
		}

		options := []postgresengine.Option{
			postgresengine.WithContextualLogger(contextualLogger),
			postgresengine.WithMetrics(metrics),
		}

		var store *postgresengine.Store

		if replicaURL := config.ReplicaURL(); replicaURL != "" {
			replica, replicaErr := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig(replicaURL))
			if replicaErr != nil {
				pool.Close()
				return nil, nil, replicaErr
			}

			store, err = postgresengine.NewStoreFromPGXPoolWithReplica(pool, replica, options...)
			if err != nil {
				pool.Close()
				replica.Close()

				return nil, nil, err
			}

			closeBoth := func() {
				pool.Close()
				replica.Close()
			}

			if schemaErr := store.EnsureSchema(ctx); schemaErr != nil {
				closeBoth()
				return nil, nil, schemaErr
			}

			return store, closeBoth, nil
		}

		store, err = postgresengine.NewStoreFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		if schemaErr := store.EnsureSchema(ctx); schemaErr != nil {
			pool.Close()
			return nil, nil, schemaErr
		}

		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage engine: %s", engine)
	}
}

// runStartupAudit recomputes availability from the ledger before serving and
// refuses to start when the catalog is inconsistent.
func runStartupAudit(
	ctx context.Context,
	lister reservation.CatalogLister,
	ledger reservation.ReservationRepository,
	slogLogger *slog.Logger,
) error {

	mismatches, err := reservation.CheckCatalogConsistency(ctx, lister, ledger)
	if err != nil {
		slogLogger.Error("startup consistency audit failed", "error", err.Error())
		return err
	}

	if len(mismatches) > 0 {
		slogLogger.Error("startup consistency audit found mismatches", "count", len(mismatches))
		return errors.New("catalog availability diverges from the reservation ledger")
	}

	slogLogger.Info("startup consistency audit passed")

	return nil
}
