// Command ledgerctl is the operator tool for the brokerage ledger.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
)

func main() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logging.Init(os.Stderr, "ledgerctl", level, "development")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands(os.Stdout) {
		commander.Register(c, "ledger")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func commands(out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&tokenCmd{out: out},
		&pricesCmd{out: out},
		&demoCmd{out: out},
	}
}
