package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/josh-kwaku/brokerage-ledger/internal/auth"
	"github.com/josh-kwaku/brokerage-ledger/internal/config"
)

type tokenCmd struct {
	out     io.Writer
	subject string
	secret  string
	ttl     time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a bearer token for the ledger API" }
func (*tokenCmd) Usage() string {
	return `ledgerctl token [-subject <name>] [-secret <secret>] [-ttl <duration>]

  Signs an HS256 token with JWT_SECRET (or -secret) and prints it.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.subject, "subject", "operator", "Subject the token is issued to.")
	f.StringVar(&c.secret, "secret", "", "Signing secret. Defaults to JWT_SECRET.")
	f.DurationVar(&c.ttl, "ttl", 0, "Token lifetime. Defaults to TOKEN_TTL.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	secret := c.secret
	if secret == "" {
		secret = cfg.JWTSecret
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "no signing secret: set JWT_SECRET or pass -secret")
		return subcommands.ExitUsageError
	}

	ttl := c.ttl
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}

	token, err := auth.GenerateToken(c.subject, secret, ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.out, token)
	return subcommands.ExitSuccess
}
