package ledger

import (
	"fmt"

	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TradeRequest describes a buy or sell. A nil Price executes at the
// account oracle's current price.
type TradeRequest struct {
	Symbol   string
	Quantity int64
	Price    *decimal.Decimal
	Note     string
}

func (r TradeRequest) validate() error {
	if r.Quantity <= 0 {
		return domain.Errorf(domain.KindInvalidTransaction, "quantity must be > 0, got %d", r.Quantity)
	}
	// A blank symbol is rejected even when an explicit price is given.
	if r.Symbol == "" {
		return domain.Errorf(domain.KindInvalidTransaction, "symbol is required")
	}
	return nil
}

func (a *Account) Buy(req TradeRequest) (domain.Transaction, error) {
	if err := req.validate(); err != nil {
		return domain.Transaction{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	price, err := a.executionPrice(req)
	if err != nil {
		return domain.Transaction{}, err
	}

	cost := price.Mul(decimal.NewFromInt(req.Quantity))
	if a.cash.Sub(cost).IsNegative() {
		return domain.Transaction{}, domain.Errorf(domain.KindInsufficientFunds,
			"insufficient cash to buy %d %s at %s: cost %s, balance %s",
			req.Quantity, req.Symbol, price, cost, a.cash)
	}

	a.cash = a.cash.Sub(cost)
	a.holdings[req.Symbol] += req.Quantity

	tx := a.record(tradeTransaction(domain.TransactionTypeBuy, req, price, cost.Neg(), req.Quantity))
	return tx.Clone(), nil
}

func (a *Account) Sell(req TradeRequest) (domain.Transaction, error) {
	if err := req.validate(); err != nil {
		return domain.Transaction{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	held := a.holdings[req.Symbol]
	if held-req.Quantity < 0 {
		return domain.Transaction{}, domain.Errorf(domain.KindInsufficientShares,
			"insufficient shares to sell %d %s: holding %d", req.Quantity, req.Symbol, held)
	}

	price, err := a.executionPrice(req)
	if err != nil {
		return domain.Transaction{}, err
	}

	proceeds := price.Mul(decimal.NewFromInt(req.Quantity))
	a.cash = a.cash.Add(proceeds)
	if remaining := held - req.Quantity; remaining == 0 {
		delete(a.holdings, req.Symbol)
	} else {
		a.holdings[req.Symbol] = remaining
	}

	tx := a.record(tradeTransaction(domain.TransactionTypeSell, req, price, proceeds, -req.Quantity))
	return tx.Clone(), nil
}

func (a *Account) executionPrice(req TradeRequest) (decimal.Decimal, error) {
	var price decimal.Decimal
	if req.Price != nil {
		price = *req.Price
	} else {
		p, err := a.oracle.PriceOf(req.Symbol)
		if err != nil {
			return decimal.Zero, fmt.Errorf("price %s: %w", req.Symbol, err)
		}
		price = p
	}
	if price.IsNegative() {
		return decimal.Zero, domain.Errorf(domain.KindInvalidTransaction, "invalid price %s for %s", price, req.Symbol)
	}
	return price, nil
}

func tradeTransaction(typ domain.TransactionType, req TradeRequest, price, cashDelta decimal.Decimal, sharesDelta int64) domain.Transaction {
	symbol := req.Symbol
	quantity := req.Quantity
	return domain.Transaction{
		Type:          typ,
		Symbol:        &symbol,
		Quantity:      &quantity,
		Price:         &price,
		CashDelta:     cashDelta,
		HoldingsDelta: map[string]int64{symbol: sharesDelta},
		Note:          req.Note,
	}
}
