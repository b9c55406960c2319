// Package report renders human-readable account statements.
package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/josh-kwaku/brokerage-ledger/internal/ledger"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/shopspring/decimal"
)

// DefaultTransactionLimit caps the history section of a full report.
const DefaultTransactionLimit = 50

type Renderer struct {
	currency money.Currency
	oracle   pricing.Oracle
}

func NewRenderer(currencyCode string, oracle pricing.Oracle) *Renderer {
	if oracle == nil {
		oracle = pricing.NewDefaultOracle()
	}
	// money.New registers unknown codes, so Currency() is never nil.
	return &Renderer{
		currency: *money.New(0, strings.ToUpper(currencyCode)).Currency(),
		oracle:   oracle,
	}
}

// Money formats an amount in the renderer's currency, rounded to the
// currency's minor unit.
func (r *Renderer) Money(amount decimal.Decimal) string {
	minor := amount.Shift(int32(r.currency.Fraction)).Round(0)
	return r.currency.Formatter().Format(minor.IntPart())
}

func (r *Renderer) Statement(w io.Writer, st ledger.Statement) error {
	owner := st.Owner
	if owner == "" {
		owner = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Account ID: %s\n", st.AccountID)
	fmt.Fprintf(&b, "Owner: %s\n", owner)
	fmt.Fprintf(&b, "Cash balance: %s\n", r.Money(st.CashBalance))
	b.WriteString("Holdings:\n")
	if len(st.Holdings) == 0 {
		b.WriteString("  (no holdings)\n")
	}
	for _, symbol := range slices.Sorted(maps.Keys(st.Holdings)) {
		qty := st.Holdings[symbol]
		price, err := r.oracle.PriceOf(symbol)
		if err != nil {
			return fmt.Errorf("Statement: %w", err)
		}
		fmt.Fprintf(&b, "  %s: %d shares @ %s = %s\n",
			symbol, qty, r.Money(price), r.Money(price.Mul(decimal.NewFromInt(qty))))
	}
	fmt.Fprintf(&b, "Portfolio value: %s\n", r.Money(st.PortfolioValue))
	fmt.Fprintf(&b, "Total balance: %s\n", r.Money(st.TotalBalance))
	fmt.Fprintf(&b, "Profit / Loss: %s (%s)\n", r.Money(st.ProfitLoss), outcome(st.ProfitLoss))
	fmt.Fprintf(&b, "Number of transactions: %d\n", st.TransactionCount)

	_, err := io.WriteString(w, b.String())
	return err
}

// Transactions writes at most limit transactions, most recent first.
func (r *Renderer) Transactions(w io.Writer, txs []domain.Transaction, limit int) error {
	if len(txs) == 0 {
		_, err := io.WriteString(w, "(no transactions)\n")
		return err
	}

	var b strings.Builder
	shown := 0
	for i := len(txs) - 1; i >= 0 && (limit <= 0 || shown < limit); i-- {
		b.WriteString(r.transactionLine(txs[i]))
		b.WriteByte('\n')
		shown++
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Full writes the statement followed by the recent history.
func (r *Renderer) Full(w io.Writer, st ledger.Statement, txs []domain.Transaction) error {
	if err := r.Statement(w, st); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\nRecent transactions:\n"); err != nil {
		return err
	}
	return r.Transactions(w, txs, DefaultTransactionLimit)
}

func (r *Renderer) transactionLine(tx domain.Transaction) string {
	ts := tx.Timestamp.UTC().Format(time.RFC3339)
	kind := strings.ToUpper(string(tx.Type))
	if !tx.Type.IsTrade() {
		note := tx.Note
		if note == "" {
			note = "-"
		}
		return fmt.Sprintf("%s | %-8s | cash %s | note: %s | id: %s",
			ts, kind, r.Money(tx.CashDelta), note, tx.ID)
	}

	price := decimal.Zero
	if tx.Price != nil {
		price = *tx.Price
	}
	var qty int64
	if tx.Quantity != nil {
		qty = *tx.Quantity
	}
	return fmt.Sprintf("%s | %-8s | %s x %d @ %s | cash %s | id: %s",
		ts, kind, tx.SymbolOrEmpty(), qty, r.Money(price), r.Money(tx.CashDelta), tx.ID)
}

func outcome(pl decimal.Decimal) string {
	switch {
	case pl.IsPositive():
		return "profit"
	case pl.IsNegative():
		return "loss"
	default:
		return "breakeven"
	}
}
