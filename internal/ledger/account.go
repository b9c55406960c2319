// Package ledger implements the single-owner brokerage account: cash,
// share holdings and the append-only transaction log.
//
// Every mutating operation runs under the account's write lock, so the
// balance check and the mutation it guards are atomic together. A failed
// operation leaves the account untouched and records nothing.
package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/shopspring/decimal"
)

const initialDepositNote = "Initial deposit"

type Account struct {
	mu sync.RWMutex

	id             string
	owner          string
	cash           decimal.Decimal
	holdings       map[string]int64
	initialDeposit decimal.Decimal
	transactions   []domain.Transaction
	deposits       int

	oracle   pricing.Oracle
	now      func() time.Time
	onCommit CommitFunc
}

type Option func(*Account)

// CommitFunc observes a committed transaction together with the cash
// balance and open position count it produced. It runs under the account's
// write lock and must not call back into the account.
type CommitFunc func(tx domain.Transaction, cash decimal.Decimal, openPositions int)

func WithCommitHook(fn CommitFunc) Option {
	return func(a *Account) { a.onCommit = fn }
}

// WithOracle sets the price oracle used by trades without an explicit price
// and by valuation queries called with a nil oracle.
func WithOracle(o pricing.Oracle) Option {
	return func(a *Account) {
		if o != nil {
			a.oracle = o
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Account) {
		if now != nil {
			a.now = now
		}
	}
}

// New opens an account. A positive initialDeposit is recorded as the first
// deposit and becomes the profit/loss baseline.
func New(id, owner string, initialDeposit decimal.Decimal, opts ...Option) (*Account, error) {
	if initialDeposit.IsNegative() {
		return nil, domain.Errorf(domain.KindInvalidTransaction, "initial deposit must be >= 0, got %s", initialDeposit)
	}

	a := &Account{
		id:       id,
		owner:    owner,
		holdings: make(map[string]int64),
		oracle:   pricing.NewDefaultOracle(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if initialDeposit.IsPositive() {
		a.cash = initialDeposit
		a.initialDeposit = initialDeposit
		a.record(domain.Transaction{
			Type:      domain.TransactionTypeDeposit,
			CashDelta: initialDeposit,
			Note:      initialDepositNote,
		})
	}

	return a, nil
}

func (a *Account) ID() string    { return a.id }
func (a *Account) Owner() string { return a.owner }

func (a *Account) InitialDeposit() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initialDeposit
}

func (a *Account) Deposit(amount decimal.Decimal, note string) (domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return domain.Transaction{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cash = a.cash.Add(amount)
	tx := a.record(domain.Transaction{
		Type:      domain.TransactionTypeDeposit,
		CashDelta: amount,
		Note:      note,
	})

	// Only the very first deposit sets the baseline; a constructor deposit
	// already counts as that first one.
	if a.initialDeposit.IsZero() && a.deposits == 1 {
		a.initialDeposit = amount
	}

	return tx.Clone(), nil
}

func (a *Account) Withdraw(amount decimal.Decimal, note string) (domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return domain.Transaction{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cash.Sub(amount).IsNegative() {
		return domain.Transaction{}, domain.Errorf(domain.KindInsufficientFunds,
			"insufficient cash to withdraw %s: balance is %s", amount, a.cash)
	}

	a.cash = a.cash.Sub(amount)
	tx := a.record(domain.Transaction{
		Type:      domain.TransactionTypeWithdraw,
		CashDelta: amount.Neg(),
		Note:      note,
	})
	return tx.Clone(), nil
}

// record stamps tx with an id and timestamp and appends it to the log.
// Callers hold the write lock (or own the account exclusively) and have
// already applied tx's effect on cash and holdings.
func (a *Account) record(tx domain.Transaction) domain.Transaction {
	tx.ID = uuid.New()
	tx.Timestamp = a.now().UTC()
	if tx.HoldingsDelta == nil {
		tx.HoldingsDelta = map[string]int64{}
	}
	a.transactions = append(a.transactions, tx)
	if tx.Type == domain.TransactionTypeDeposit {
		a.deposits++
	}
	if a.onCommit != nil {
		a.onCommit(tx.Clone(), a.cash, len(a.holdings))
	}
	return tx
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.Errorf(domain.KindInvalidTransaction, "amount must be > 0, got %s", amount)
	}
	return nil
}
