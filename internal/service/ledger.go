package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/josh-kwaku/brokerage-ledger/internal/ledger"
	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/shopspring/decimal"
)

// LedgerService hosts the one account this deployment manages. Opening a
// new account replaces the current one.
type LedgerService struct {
	mu      sync.RWMutex
	account *ledger.Account

	oracle  pricing.Oracle
	metrics metricsRecorder
	now     func() time.Time
}

type Option func(*LedgerService)

func WithMetrics(m metricsRecorder) Option {
	return func(s *LedgerService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(oracle pricing.Oracle, opts ...Option) *LedgerService {
	if oracle == nil {
		oracle = pricing.NewDefaultOracle()
	}
	s := &LedgerService{
		oracle:  oracle,
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) OpenAccount(ctx context.Context, owner string, initialDeposit decimal.Decimal) (*ledger.Account, error) {
	log := logging.FromContext(ctx)

	acct, err := ledger.New(uuid.NewString(), owner, initialDeposit,
		ledger.WithOracle(s.oracle),
		ledger.WithClock(s.now),
		ledger.WithCommitHook(s.recordCommit),
	)
	if err != nil {
		s.metrics.RecordRejection("open", err)
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}
	// The account is not reachable yet, so this cannot race a mutation.
	s.metrics.RecordBalances(acct.CashBalance(), len(acct.Holdings()))

	s.mu.Lock()
	replaced := s.account
	s.account = acct
	s.mu.Unlock()

	if replaced != nil {
		log.Warn("account replaced", "previous_account_id", replaced.ID(), "account_id", acct.ID())
	}

	log.Info("account opened",
		"account_id", acct.ID(),
		"owner", owner,
		"initial_deposit", initialDeposit.String(),
	)
	return acct, nil
}

func (s *LedgerService) Account(_ context.Context) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return nil, fmt.Errorf("Account: %w", domain.ErrAccountNotFound)
	}
	return s.account, nil
}

func (s *LedgerService) Deposit(ctx context.Context, amount decimal.Decimal, note string) (domain.Transaction, error) {
	return s.mutate(ctx, "Deposit", func(a *ledger.Account) (domain.Transaction, error) {
		return a.Deposit(amount, note)
	})
}

func (s *LedgerService) Withdraw(ctx context.Context, amount decimal.Decimal, note string) (domain.Transaction, error) {
	return s.mutate(ctx, "Withdraw", func(a *ledger.Account) (domain.Transaction, error) {
		return a.Withdraw(amount, note)
	})
}

func (s *LedgerService) Buy(ctx context.Context, req ledger.TradeRequest) (domain.Transaction, error) {
	return s.mutate(ctx, "Buy", func(a *ledger.Account) (domain.Transaction, error) {
		return a.Buy(req)
	})
}

func (s *LedgerService) Sell(ctx context.Context, req ledger.TradeRequest) (domain.Transaction, error) {
	return s.mutate(ctx, "Sell", func(a *ledger.Account) (domain.Transaction, error) {
		return a.Sell(req)
	})
}

func (s *LedgerService) Statement(ctx context.Context) (ledger.Statement, error) {
	acct, err := s.Account(ctx)
	if err != nil {
		return ledger.Statement{}, fmt.Errorf("Statement: %w", err)
	}
	st, err := acct.Statement(s.oracle)
	if err != nil {
		return ledger.Statement{}, fmt.Errorf("Statement: %w", err)
	}
	return st, nil
}

func (s *LedgerService) Holdings(ctx context.Context) (map[string]int64, error) {
	acct, err := s.Account(ctx)
	if err != nil {
		return nil, fmt.Errorf("Holdings: %w", err)
	}
	return acct.Holdings(), nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]domain.Transaction, error) {
	acct, err := s.Account(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	txs, err := acct.ListTransactions(filter)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	acct, err := s.Account(ctx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: %w", err)
	}
	tx, ok := acct.Transaction(id)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: %s: %w", id, domain.ErrNotFound)
	}
	return tx, nil
}

func (s *LedgerService) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, err := s.oracle.PriceOf(symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Quote: %w", err)
	}
	return price, nil
}

type symbolLister interface {
	Symbols() []string
}

// Quotes prices every symbol the oracle can enumerate. Oracles that cannot
// list their symbols yield an empty table.
func (s *LedgerService) Quotes(ctx context.Context) (map[string]decimal.Decimal, error) {
	lister, ok := s.oracle.(symbolLister)
	if !ok {
		return map[string]decimal.Decimal{}, nil
	}
	quotes := make(map[string]decimal.Decimal)
	for _, symbol := range lister.Symbols() {
		price, err := s.Quote(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("Quotes: %w", err)
		}
		quotes[symbol] = price
	}
	return quotes, nil
}

func (s *LedgerService) mutate(ctx context.Context, op string, apply func(*ledger.Account) (domain.Transaction, error)) (domain.Transaction, error) {
	log := logging.FromContext(ctx)
	label := strings.ToLower(op)

	acct, err := s.Account(ctx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := apply(acct)
	if err != nil {
		s.metrics.RecordRejection(label, err)
		log.Warn("ledger operation rejected",
			"operation", label,
			"account_id", acct.ID(),
			"error", err,
		)
		return domain.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	attrs := []any{
		"operation", label,
		"account_id", acct.ID(),
		"transaction_id", tx.ID,
		"cash_delta", tx.CashDelta.String(),
	}
	if tx.Symbol != nil {
		attrs = append(attrs, "symbol", *tx.Symbol, "quantity", *tx.Quantity, "price", tx.Price.String())
	}
	log.Info("transaction recorded", attrs...)

	return tx, nil
}

// recordCommit runs inside the account's critical section, so balance
// gauges are set in commit order.
func (s *LedgerService) recordCommit(tx domain.Transaction, cash decimal.Decimal, openPositions int) {
	s.metrics.RecordTransaction(tx)
	s.metrics.RecordBalances(cash, openPositions)
}
