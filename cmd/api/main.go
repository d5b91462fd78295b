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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/config"
	"github.com/MrJamesThe3rd/benefits/internal/export"
	benefitsHttp "github.com/MrJamesThe3rd/benefits/internal/http"
	"github.com/MrJamesThe3rd/benefits/internal/http/auth"
	exportHandler "github.com/MrJamesThe3rd/benefits/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/benefits/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/benefits/internal/http/matching"
	txHandler "github.com/MrJamesThe3rd/benefits/internal/http/transaction"
	"github.com/MrJamesThe3rd/benefits/internal/importer"
	"github.com/MrJamesThe3rd/benefits/internal/importer/claims"
	"github.com/MrJamesThe3rd/benefits/internal/matching"
	"github.com/MrJamesThe3rd/benefits/internal/metrics"
	"github.com/MrJamesThe3rd/benefits/internal/notify"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.RequireAuth(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(reg)
	}

	hub := notify.NewHub(slog.Default(), m, cfg.CORS.AllowedOrigins)
	go hub.Run(ctx)

	var (
		catalogService     = catalog.NewService(store.catalog)
		transactionService = transaction.NewService(store.transactions, catalogService, hub, transaction.WithMetrics(m))
		matchingService    = matching.NewService(store.matching)
		importService      = importer.NewService(matchingService, map[importer.Format]importer.Parser{
			importer.FormatClaims: claims.NewParser(),
		})
		exportService = export.NewService(transactionService)
	)

	var (
		transactionH = txHandler.NewHandler(transactionService)
		importH      = importHandler.NewHandler(importService, transactionService)
		matchingH    = matchingHandler.NewHandler(matchingService)
		exportH      = exportHandler.NewHandler(exportService)
	)

	opts := benefitsHttp.Options{
		Authenticate:   auth.New(cfg.Auth.JWTSecret).Middleware,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
		Notifications:  hub,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.Handler(reg)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           benefitsHttp.New(opts, transactionH, importH, matchingH, exportH),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "storage", cfg.Storage.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
