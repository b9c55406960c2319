package main

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/brokerage-ledger/docs"
	"github.com/josh-kwaku/brokerage-ledger/internal/handler"
	"github.com/josh-kwaku/brokerage-ledger/internal/middleware"
	"github.com/josh-kwaku/brokerage-ledger/internal/report"
	"github.com/josh-kwaku/brokerage-ledger/internal/repository"
	"github.com/josh-kwaku/brokerage-ledger/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routerDeps struct {
	ledger         *service.LedgerService
	renderer       *report.Renderer
	idempotency    *repository.IdempotencyRepository
	idempotencyTTL time.Duration
	registry       *prometheus.Registry
	jwtSecret      string
}

func newRouter(d routerDeps) http.Handler {
	accounts := handler.NewAccountHandler(d.ledger, d.renderer)
	prices := handler.NewPriceHandler(d.ledger)
	health := handler.NewHealthHandler(map[string]handler.ReadinessCheck{
		"price_oracle": func(ctx context.Context) error {
			_, err := d.ledger.Quotes(ctx)
			return err
		},
	})

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/account", accounts.Open)
	api.HandleFunc("GET /api/v1/account", accounts.Get)
	api.HandleFunc("GET /api/v1/account/statement", accounts.Statement)
	api.HandleFunc("GET /api/v1/account/holdings", accounts.Holdings)
	api.HandleFunc("POST /api/v1/account/deposits", accounts.Deposit)
	api.HandleFunc("POST /api/v1/account/withdrawals", accounts.Withdraw)
	api.HandleFunc("POST /api/v1/account/buys", accounts.Buy)
	api.HandleFunc("POST /api/v1/account/sells", accounts.Sell)
	api.HandleFunc("GET /api/v1/account/transactions", accounts.ListTransactions)
	api.HandleFunc("GET /api/v1/account/transactions/{id}", accounts.GetTransaction)
	api.HandleFunc("GET /api/v1/prices", prices.List)
	api.HandleFunc("GET /api/v1/prices/{symbol}", prices.Get)

	var apiChain []func(http.Handler) http.Handler
	if d.jwtSecret != "" {
		apiChain = append(apiChain, middleware.Auth(d.jwtSecret))
	}
	apiChain = append(apiChain, middleware.Idempotency(d.idempotency, d.idempotencyTTL))

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", middleware.Chain(api, apiChain...))
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(docs.OpenAPI))

	return middleware.Chain(mux,
		middleware.Tracing,
		middleware.Logging,
		middleware.Recovery,
	)
}
