package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/josh-kwaku/brokerage-ledger/internal/config"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/josh-kwaku/brokerage-ledger/internal/report"
)

type pricesCmd struct {
	out io.Writer
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "list the configured price table" }
func (*pricesCmd) Usage() string {
	return `ledgerctl prices

  Prints every symbol the price oracle knows, honoring PRICE_TABLE overrides.
`
}

func (*pricesCmd) SetFlags(*flag.FlagSet) {}

func (c *pricesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	r := report.NewRenderer(cfg.Currency, oracle)
	for _, symbol := range oracle.Symbols() {
		price, err := oracle.PriceOf(symbol)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(c.out, "%-6s %s\n", symbol, r.Money(price))
	}
	return subcommands.ExitSuccess
}
