package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeBuy      TransactionType = "buy"
	TransactionTypeSell     TransactionType = "sell"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeBuy, TransactionTypeSell:
		return true
	}
	return false
}

func (t TransactionType) IsTrade() bool {
	return t == TransactionTypeBuy || t == TransactionTypeSell
}

// Transaction is the immutable record of one committed ledger operation.
// Symbol, Quantity and Price are set for trades only.
type Transaction struct {
	ID            uuid.UUID
	Timestamp     time.Time
	Type          TransactionType
	Symbol        *string
	Quantity      *int64
	Price         *decimal.Decimal
	CashDelta     decimal.Decimal
	HoldingsDelta map[string]int64
	Note          string
}

// Clone returns a deep copy; the copy shares no memory with t.
func (t Transaction) Clone() Transaction {
	c := t
	if t.Symbol != nil {
		s := *t.Symbol
		c.Symbol = &s
	}
	if t.Quantity != nil {
		q := *t.Quantity
		c.Quantity = &q
	}
	if t.Price != nil {
		p := *t.Price
		c.Price = &p
	}
	c.HoldingsDelta = maps.Clone(t.HoldingsDelta)
	if c.HoldingsDelta == nil {
		c.HoldingsDelta = map[string]int64{}
	}
	return c
}

func (t Transaction) SymbolOrEmpty() string {
	if t.Symbol == nil {
		return ""
	}
	return *t.Symbol
}
