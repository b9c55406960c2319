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

	"github.com/josh-kwaku/brokerage-ledger/internal/config"
	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
	"github.com/josh-kwaku/brokerage-ledger/internal/metrics"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/josh-kwaku/brokerage-ledger/internal/report"
	"github.com/josh-kwaku/brokerage-ledger/internal/repository"
	"github.com/josh-kwaku/brokerage-ledger/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const idempotencySweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init(os.Stdout, "ledger-api", cfg.LogLevel, cfg.AppEnv)

	oracle, err := pricing.NewOracleFromTable(cfg.PriceTable)
	if err != nil {
		slog.Error("invalid price table", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("ledger")
	if err := collector.Register(registry); err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	ledgerSvc := service.NewLedgerService(oracle, service.WithMetrics(collector))

	if cfg.OpenAccountOnStart {
		if err := openInitialAccount(ledgerSvc, cfg); err != nil {
			slog.Error("failed to open account", "error", err)
			os.Exit(1)
		}
	}

	idempotencyRepo := repository.NewIdempotencyRepository()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sweepIdempotency(ctx, idempotencyRepo)

	router := newRouter(routerDeps{
		ledger:         ledgerSvc,
		renderer:       report.NewRenderer(cfg.Currency, oracle),
		idempotency:    idempotencyRepo,
		idempotencyTTL: cfg.IdempotencyTTL,
		registry:       registry,
		jwtSecret:      cfg.JWTSecret,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "auth_enabled", cfg.AuthEnabled(), "symbols", oracle.Symbols())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openInitialAccount(svc *service.LedgerService, cfg *config.Config) error {
	amount, err := cfg.InitialDepositAmount()
	if err != nil {
		return fmt.Errorf("openInitialAccount: %w", err)
	}
	if _, err := svc.OpenAccount(context.Background(), cfg.AccountOwner, amount); err != nil {
		return fmt.Errorf("openInitialAccount: %w", err)
	}
	return nil
}

func sweepIdempotency(ctx context.Context, repo *repository.IdempotencyRepository) {
	ticker := time.NewTicker(idempotencySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil {
				slog.Warn("idempotency sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("idempotency entries expired", "count", n)
			}
		}
	}
}
