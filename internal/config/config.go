package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	// JWTSecret enables bearer-token auth on the account routes when set.
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// PriceTable overrides the built-in quotes, e.g. PRICE_TABLE=AAPL:150,MSFT:410.
	PriceTable map[string]string `env:"PRICE_TABLE" envSeparator:"," envKeyValSeparator:":"`
	Currency   string            `env:"CURRENCY" envDefault:"USD"`

	OpenAccountOnStart bool   `env:"OPEN_ACCOUNT_ON_START" envDefault:"false"`
	AccountOwner       string `env:"ACCOUNT_OWNER"`
	InitialDeposit     string `env:"INITIAL_DEPOSIT" envDefault:"0"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if _, err := cfg.InitialDepositAmount(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) InitialDepositAmount() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(c.InitialDeposit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("INITIAL_DEPOSIT: %w", err)
	}
	return amount, nil
}

func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }
