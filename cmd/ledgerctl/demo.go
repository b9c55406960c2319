package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/josh-kwaku/brokerage-ledger/internal/config"
	"github.com/josh-kwaku/brokerage-ledger/internal/ledger"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/josh-kwaku/brokerage-ledger/internal/report"
	"github.com/josh-kwaku/brokerage-ledger/internal/service"
	"github.com/shopspring/decimal"
)

type demoCmd struct {
	out   io.Writer
	owner string
}

func (*demoCmd) Name() string     { return "demo" }
func (*demoCmd) Synopsis() string { return "run a scripted session and print the statement" }
func (*demoCmd) Usage() string {
	return `ledgerctl demo [-owner <name>]

  Opens an in-memory account with 10000, buys 10 AAPL and 2 TSLA, sells
  5 AAPL, withdraws 500 and prints the resulting statement.
`
}

func (c *demoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "Demo User", "Account owner name.")
}

func (c *demoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	oracle, err := pricing.NewOracleFromTable(cfg.PriceTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if err := runDemo(ctx, c.out, c.owner, oracle, report.NewRenderer(cfg.Currency, oracle)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func runDemo(ctx context.Context, w io.Writer, owner string, oracle pricing.Oracle, r *report.Renderer) error {
	svc := service.NewLedgerService(oracle)

	if _, err := svc.OpenAccount(ctx, owner, decimal.NewFromInt(10000)); err != nil {
		return fmt.Errorf("runDemo: %w", err)
	}
	steps := []func() error{
		func() error {
			_, err := svc.Buy(ctx, ledger.TradeRequest{Symbol: "AAPL", Quantity: 10})
			return err
		},
		func() error {
			_, err := svc.Buy(ctx, ledger.TradeRequest{Symbol: "TSLA", Quantity: 2})
			return err
		},
		func() error {
			_, err := svc.Sell(ctx, ledger.TradeRequest{Symbol: "AAPL", Quantity: 5})
			return err
		},
		func() error {
			_, err := svc.Withdraw(ctx, decimal.NewFromInt(500), "demo withdrawal")
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("runDemo: %w", err)
		}
	}

	st, err := svc.Statement(ctx)
	if err != nil {
		return fmt.Errorf("runDemo: %w", err)
	}
	txs, err := svc.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("runDemo: %w", err)
	}
	return r.Full(w, st, txs)
}
