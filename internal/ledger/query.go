package ledger

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/shopspring/decimal"
)

// Statement is a point-in-time view of the account, computed under a
// single read lock.
type Statement struct {
	AccountID        string
	Owner            string
	CashBalance      decimal.Decimal
	Holdings         map[string]int64
	PortfolioValue   decimal.Decimal
	TotalBalance     decimal.Decimal
	InitialDeposit   decimal.Decimal
	ProfitLoss       decimal.Decimal
	TransactionCount int
}

// TransactionFilter selects transactions for ListTransactions. Nil fields
// do not filter. Start and End are inclusive.
type TransactionFilter struct {
	Start  *time.Time
	End    *time.Time
	Type   *domain.TransactionType
	Symbol *string
}

func (f TransactionFilter) match(tx domain.Transaction) bool {
	if f.Start != nil && tx.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && tx.Timestamp.After(*f.End) {
		return false
	}
	if f.Type != nil && tx.Type != *f.Type {
		return false
	}
	if f.Symbol != nil && (tx.Symbol == nil || *tx.Symbol != *f.Symbol) {
		return false
	}
	return true
}

// Holdings returns a copy of the symbol -> quantity map.
func (a *Account) Holdings() map[string]int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.holdings)
}

func (a *Account) CashBalance() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cash
}

func (a *Account) TransactionCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.transactions)
}

// PortfolioValue prices every holding with o, or with the account's oracle
// when o is nil. Oracle errors are returned unchanged in kind.
func (a *Account) PortfolioValue(o pricing.Oracle) (decimal.Decimal, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.portfolioValue(o)
}

func (a *Account) TotalBalance(o pricing.Oracle) (decimal.Decimal, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	pv, err := a.portfolioValue(o)
	if err != nil {
		return decimal.Zero, err
	}
	return a.cash.Add(pv), nil
}

func (a *Account) ProfitLoss(o pricing.Oracle) (decimal.Decimal, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	pv, err := a.portfolioValue(o)
	if err != nil {
		return decimal.Zero, err
	}
	return a.cash.Add(pv).Sub(a.initialDeposit), nil
}

func (a *Account) Statement(o pricing.Oracle) (Statement, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	pv, err := a.portfolioValue(o)
	if err != nil {
		return Statement{}, err
	}
	total := a.cash.Add(pv)

	return Statement{
		AccountID:        a.id,
		Owner:            a.owner,
		CashBalance:      a.cash,
		Holdings:         maps.Clone(a.holdings),
		PortfolioValue:   pv,
		TotalBalance:     total,
		InitialDeposit:   a.initialDeposit,
		ProfitLoss:       total.Sub(a.initialDeposit),
		TransactionCount: len(a.transactions),
	}, nil
}

// ListTransactions returns the matching transactions in the order they were
// recorded. A range with Start after End is rejected.
func (a *Account) ListTransactions(f TransactionFilter) ([]domain.Transaction, error) {
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return nil, domain.Errorf(domain.KindInvalidTransaction,
			"start %s must not be after end %s", f.Start.Format(time.RFC3339Nano), f.End.Format(time.RFC3339Nano))
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(a.transactions))
	for _, tx := range a.transactions {
		if f.match(tx) {
			result = append(result, tx.Clone())
		}
	}
	return result, nil
}

func (a *Account) Transaction(id uuid.UUID) (domain.Transaction, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, tx := range a.transactions {
		if tx.ID == id {
			return tx.Clone(), true
		}
	}
	return domain.Transaction{}, false
}

// portfolioValue walks holdings in symbol order so that, with several
// unpriceable symbols, the reported one is deterministic.
func (a *Account) portfolioValue(o pricing.Oracle) (decimal.Decimal, error) {
	if o == nil {
		o = a.oracle
	}
	total := decimal.Zero
	for _, symbol := range slices.Sorted(maps.Keys(a.holdings)) {
		price, err := o.PriceOf(symbol)
		if err != nil {
			return decimal.Zero, fmt.Errorf("price %s: %w", symbol, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(a.holdings[symbol])))
	}
	return total, nil
}
