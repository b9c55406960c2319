package pricing

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Oracle maps a ticker symbol to its current price. Implementations return
// an error of kind domain.KindUnknownSymbol for symbols they do not quote.
type Oracle interface {
	PriceOf(symbol string) (decimal.Decimal, error)
}

type OracleFunc func(symbol string) (decimal.Decimal, error)

func (f OracleFunc) PriceOf(symbol string) (decimal.Decimal, error) { return f(symbol) }

type StaticOracle struct {
	prices map[string]decimal.Decimal
}

func DefaultPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"AAPL":  decimal.RequireFromString("150.00"),
		"TSLA":  decimal.RequireFromString("700.00"),
		"GOOGL": decimal.RequireFromString("2800.00"),
	}
}

func NewDefaultOracle() *StaticOracle {
	return NewStaticOracle(DefaultPrices())
}

func NewStaticOracle(prices map[string]decimal.Decimal) *StaticOracle {
	return &StaticOracle{prices: maps.Clone(prices)}
}

func (o *StaticOracle) PriceOf(symbol string) (decimal.Decimal, error) {
	price, ok := o.prices[symbol]
	if !ok {
		return decimal.Zero, domain.Errorf(domain.KindUnknownSymbol, "unknown symbol: %s", symbol)
	}
	return price, nil
}

func (o *StaticOracle) Symbols() []string {
	return slices.Sorted(maps.Keys(o.prices))
}

// ParsePriceTable converts a configured SYMBOL -> price table. Symbols are
// upper-cased; prices must be non-negative decimals.
func ParsePriceTable(table map[string]string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(table))
	for sym, raw := range table {
		symbol := strings.ToUpper(strings.TrimSpace(sym))
		if symbol == "" {
			return nil, fmt.Errorf("ParsePriceTable: empty symbol")
		}
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("ParsePriceTable: %s: %w", symbol, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("ParsePriceTable: %s: negative price %s", symbol, price)
		}
		prices[symbol] = price
	}
	return prices, nil
}

// NewOracleFromTable layers a configured price table over the defaults.
func NewOracleFromTable(table map[string]string) (*StaticOracle, error) {
	overrides, err := ParsePriceTable(table)
	if err != nil {
		return nil, err
	}
	prices := DefaultPrices()
	maps.Copy(prices, overrides)
	return &StaticOracle{prices: prices}, nil
}
