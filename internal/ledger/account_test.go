package ledger

import (
	"testing"
	"time"

	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/josh-kwaku/brokerage-ledger/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

// stepClock returns a clock that advances one second per reading.
func stepClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}

var epoch = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newAccount(t *testing.T, initial string) *Account {
	t.Helper()
	a, err := New("acct-1", "Alice", dec(initial), WithClock(stepClock(epoch)))
	require.NoError(t, err)
	return a
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "got %s, want %s", got, want)
}

func TestNew(t *testing.T) {
	t.Run("initial deposit sets baseline and records transaction", func(t *testing.T) {
		a := newAccount(t, "100.0")

		assert.Equal(t, "acct-1", a.ID())
		assert.Equal(t, "Alice", a.Owner())
		assertDecimal(t, "100", a.CashBalance())
		assertDecimal(t, "100", a.InitialDeposit())
		require.Equal(t, 1, a.TransactionCount())

		txs, err := a.ListTransactions(TransactionFilter{})
		require.NoError(t, err)
		tx := txs[0]
		assert.Equal(t, domain.TransactionTypeDeposit, tx.Type)
		assert.Equal(t, "Initial deposit", tx.Note)
		assertDecimal(t, "100", tx.CashDelta)
		assert.Nil(t, tx.Symbol)
		assert.Nil(t, tx.Quantity)
		assert.Nil(t, tx.Price)
		assert.Empty(t, tx.HoldingsDelta)
		assert.Equal(t, time.UTC, tx.Timestamp.Location())
	})

	t.Run("zero initial deposit records nothing", func(t *testing.T) {
		a := newAccount(t, "0")
		assert.Equal(t, 0, a.TransactionCount())
		assert.True(t, a.CashBalance().IsZero())
		assert.True(t, a.InitialDeposit().IsZero())
	})

	t.Run("negative initial deposit", func(t *testing.T) {
		_, err := New("acct-x", "", dec("-1"))
		require.ErrorIs(t, err, domain.ErrInvalidTransaction)
	})
}

func TestDeposit(t *testing.T) {
	t.Run("first deposit sets baseline", func(t *testing.T) {
		a := newAccount(t, "0")
		tx, err := a.Deposit(dec("50"), "first")
		require.NoError(t, err)

		assertDecimal(t, "50", a.CashBalance())
		assertDecimal(t, "50", a.InitialDeposit())
		assert.Equal(t, domain.TransactionTypeDeposit, tx.Type)
		assert.Equal(t, "first", tx.Note)
		assertDecimal(t, "50", tx.CashDelta)
	})

	t.Run("later deposits keep baseline", func(t *testing.T) {
		a := newAccount(t, "0")
		_, err := a.Deposit(dec("50"), "")
		require.NoError(t, err)
		_, err = a.Deposit(dec("25"), "")
		require.NoError(t, err)

		assertDecimal(t, "75", a.CashBalance())
		assertDecimal(t, "50", a.InitialDeposit())
	})

	t.Run("constructor deposit suppresses baseline reset", func(t *testing.T) {
		a := newAccount(t, "100")
		_, err := a.Deposit(dec("40"), "")
		require.NoError(t, err)
		assertDecimal(t, "100", a.InitialDeposit())
	})

	t.Run("failed withdrawal does not block baseline", func(t *testing.T) {
		a := newAccount(t, "0")
		_, err := a.Withdraw(dec("1"), "")
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		_, err = a.Deposit(dec("10"), "")
		require.NoError(t, err)
		assertDecimal(t, "10", a.InitialDeposit())
	})

	for _, amount := range []string{"0", "-10"} {
		t.Run("rejects "+amount, func(t *testing.T) {
			a := newAccount(t, "5")
			_, err := a.Deposit(dec(amount), "")
			require.ErrorIs(t, err, domain.ErrInvalidTransaction)
			assertDecimal(t, "5", a.CashBalance())
			assert.Equal(t, 1, a.TransactionCount())
		})
	}

	t.Run("increases balance and count by exactly one", func(t *testing.T) {
		a := newAccount(t, "0")
		for i, amount := range []string{"0.01", "3.5", "1000", "12.345"} {
			before := a.CashBalance()
			_, err := a.Deposit(dec(amount), "")
			require.NoError(t, err)
			assertDecimal(t, before.Add(dec(amount)).String(), a.CashBalance())
			assert.Equal(t, i+1, a.TransactionCount())
		}
	})
}

func TestWithdraw(t *testing.T) {
	a := newAccount(t, "0")
	_, err := a.Deposit(dec("200"), "")
	require.NoError(t, err)

	tx, err := a.Withdraw(dec("75"), "atm")
	require.NoError(t, err)
	assertDecimal(t, "125", a.CashBalance())
	assert.Equal(t, domain.TransactionTypeWithdraw, tx.Type)
	assertDecimal(t, "-75", tx.CashDelta)
	assert.Equal(t, "atm", tx.Note)

	_, err = a.Withdraw(dec("1000"), "")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertDecimal(t, "125", a.CashBalance())
	assert.Equal(t, 2, a.TransactionCount())

	_, err = a.Withdraw(dec("0"), "")
	require.ErrorIs(t, err, domain.ErrInvalidTransaction)

	_, err = a.Withdraw(dec("125"), "all of it")
	require.NoError(t, err)
	assert.True(t, a.CashBalance().IsZero())
}

func TestBuyAndSell(t *testing.T) {
	a := newAccount(t, "0")
	_, err := a.Deposit(dec("1000"), "")
	require.NoError(t, err)

	buy, err := a.Buy(TradeRequest{Symbol: "AAPL", Quantity: 2})
	require.NoError(t, err)
	assertDecimal(t, "700", a.CashBalance())
	assert.Equal(t, map[string]int64{"AAPL": 2}, a.Holdings())
	assert.Equal(t, domain.TransactionTypeBuy, buy.Type)
	require.NotNil(t, buy.Symbol)
	assert.Equal(t, "AAPL", *buy.Symbol)
	require.NotNil(t, buy.Quantity)
	assert.Equal(t, int64(2), *buy.Quantity)
	require.NotNil(t, buy.Price)
	assertDecimal(t, "150", *buy.Price)
	assertDecimal(t, "-300", buy.CashDelta)
	assert.Equal(t, map[string]int64{"AAPL": 2}, buy.HoldingsDelta)

	sell, err := a.Sell(TradeRequest{Symbol: "AAPL", Quantity: 1})
	require.NoError(t, err)
	assertDecimal(t, "850", a.CashBalance())
	assert.Equal(t, map[string]int64{"AAPL": 1}, a.Holdings())
	assert.Equal(t, domain.TransactionTypeSell, sell.Type)
	assertDecimal(t, "150", sell.CashDelta)
	assert.Equal(t, map[string]int64{"AAPL": -1}, sell.HoldingsDelta)

	_, err = a.Sell(TradeRequest{Symbol: "AAPL", Quantity: 10})
	require.ErrorIs(t, err, domain.ErrInsufficientShares)
	assertDecimal(t, "850", a.CashBalance())
	assert.Equal(t, map[string]int64{"AAPL": 1}, a.Holdings())

	_, err = a.Buy(TradeRequest{Symbol: "TSLA", Quantity: 10000})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = a.Buy(TradeRequest{Symbol: "AAPL", Quantity: 0})
	require.ErrorIs(t, err, domain.ErrInvalidTransaction)
	_, err = a.Sell(TradeRequest{Symbol: "AAPL", Quantity: 0})
	require.ErrorIs(t, err, domain.ErrInvalidTransaction)

	assert.Equal(t, 3, a.TransactionCount())
}

func TestSellEntireHoldingRemovesSymbol(t *testing.T) {
	a := newAccount(t, "1000")
	_, err := a.Buy(TradeRequest{Symbol: "AAPL", Quantity: 3})
	require.NoError(t, err)

	_, err = a.Sell(TradeRequest{Symbol: "AAPL", Quantity: 3})
	require.NoError(t, err)

	holdings := a.Holdings()
	_, present := holdings["AAPL"]
	assert.False(t, present)
	assert.Empty(t, holdings)
	assertDecimal(t, "1000", a.CashBalance())
}

func TestTradeWithExplicitPrice(t *testing.T) {
	a := newAccount(t, "100")

	tx, err := a.Buy(TradeRequest{Symbol: "ACME", Quantity: 4, Price: ptr(dec("12.5")), Note: "otc"})
	require.NoError(t, err)
	assertDecimal(t, "50", a.CashBalance())
	assertDecimal(t, "12.5", *tx.Price)
	assert.Equal(t, "otc", tx.Note)

	tx, err = a.Sell(TradeRequest{Symbol: "ACME", Quantity: 1, Price: ptr(dec("0"))})
	require.NoError(t, err)
	assert.True(t, tx.CashDelta.IsZero())
	assert.Equal(t, map[string]int64{"ACME": 3}, a.Holdings())

	_, err = a.Buy(TradeRequest{Symbol: "ACME", Quantity: 1, Price: ptr(dec("-1"))})
	require.ErrorIs(t, err, domain.ErrInvalidTransaction)
	_, err = a.Sell(TradeRequest{Symbol: "ACME", Quantity: 1, Price: ptr(dec("-1"))})
	require.ErrorIs(t, err, domain.ErrInvalidTransaction)
	assert.Equal(t, map[string]int64{"ACME": 3}, a.Holdings())
}

func TestTradeFailuresLeaveStateUnchanged(t *testing.T) {
	negative := pricing.OracleFunc(func(string) (decimal.Decimal, error) { return dec("-5"), nil })

	tests := []struct {
		name    string
		opts    []Option
		trade   func(a *Account) error
		wantErr error
	}{
		{
			name:    "buy unknown symbol",
			trade:   func(a *Account) error { _, err := a.Buy(TradeRequest{Symbol: "UNKNOWN", Quantity: 1}); return err },
			wantErr: domain.ErrUnknownSymbol,
		},
		{
			name:    "sell unknown symbol without holding",
			trade:   func(a *Account) error { _, err := a.Sell(TradeRequest{Symbol: "UNKNOWN", Quantity: 1}); return err },
			wantErr: domain.ErrInsufficientShares,
		},
		{
			name:    "buy empty symbol",
			trade:   func(a *Account) error { _, err := a.Buy(TradeRequest{Quantity: 1, Price: ptr(dec("1"))}); return err },
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name:    "oracle returns negative price",
			opts:    []Option{WithOracle(negative)},
			trade:   func(a *Account) error { _, err := a.Buy(TradeRequest{Symbol: "AAPL", Quantity: 1}); return err },
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name:    "sell negative quantity",
			trade:   func(a *Account) error { _, err := a.Sell(TradeRequest{Symbol: "AAPL", Quantity: -1}); return err },
			wantErr: domain.ErrInvalidTransaction,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := append([]Option{WithClock(stepClock(epoch))}, tc.opts...)
			a, err := New("acct", "", dec("1000"), opts...)
			require.NoError(t, err)

			err = tc.trade(a)
			require.ErrorIs(t, err, tc.wantErr)
			assertDecimal(t, "1000", a.CashBalance())
			assert.Empty(t, a.Holdings())
			assert.Equal(t, 1, a.TransactionCount())
		})
	}
}

func TestHoldingsIsCopy(t *testing.T) {
	a := newAccount(t, "500")
	_, err := a.Buy(TradeRequest{Symbol: "AAPL", Quantity: 1})
	require.NoError(t, err)

	h := a.Holdings()
	h["AAPL"] = 999
	h["TSLA"] = 5

	assert.Equal(t, map[string]int64{"AAPL": 1}, a.Holdings())
}

func TestReturnedTransactionIsDetached(t *testing.T) {
	a := newAccount(t, "500")
	tx, err := a.Buy(TradeRequest{Symbol: "AAPL", Quantity: 1})
	require.NoError(t, err)

	tx.HoldingsDelta["AAPL"] = 42
	*tx.Quantity = 42

	stored, ok := a.Transaction(tx.ID)
	require.True(t, ok)
	assert.Equal(t, int64(1), stored.HoldingsDelta["AAPL"])
	assert.Equal(t, int64(1), *stored.Quantity)
}

func TestCommitHook(t *testing.T) {
	type commit struct {
		typ       domain.TransactionType
		cash      string
		positions int
	}
	var got []commit
	hook := func(tx domain.Transaction, cash decimal.Decimal, positions int) {
		got = append(got, commit{tx.Type, cash.String(), positions})
	}

	a, err := New("acct", "", dec("1000"), WithCommitHook(hook), WithClock(stepClock(epoch)))
	require.NoError(t, err)

	_, err = a.Buy(TradeRequest{Symbol: "AAPL", Quantity: 2})
	require.NoError(t, err)
	_, err = a.Withdraw(dec("5000"), "")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	_, err = a.Sell(TradeRequest{Symbol: "AAPL", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, []commit{
		{domain.TransactionTypeDeposit, "1000", 0},
		{domain.TransactionTypeBuy, "700", 1},
		{domain.TransactionTypeSell, "1000", 0},
	}, got)
}
