package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidRequest  = errors.New("invalid request")
)

type ErrorKind string

const (
	KindInvalidTransaction ErrorKind = "invalid_transaction"
	KindInsufficientFunds  ErrorKind = "insufficient_funds"
	KindInsufficientShares ErrorKind = "insufficient_shares"
	KindUnknownSymbol      ErrorKind = "unknown_symbol"
)

func (k ErrorKind) String() string { return string(k) }

// LedgerError is the failure signal of every ledger operation. Callers
// inspect Kind (or match one of the Err* sentinels with errors.Is) rather
// than the message.
type LedgerError struct {
	Kind    ErrorKind
	Message string
}

var (
	ErrInvalidTransaction = &LedgerError{Kind: KindInvalidTransaction}
	ErrInsufficientFunds  = &LedgerError{Kind: KindInsufficientFunds}
	ErrInsufficientShares = &LedgerError{Kind: KindInsufficientShares}
	ErrUnknownSymbol      = &LedgerError{Kind: KindUnknownSymbol}
)

var defaultMessages = map[ErrorKind]string{
	KindInvalidTransaction: "invalid transaction",
	KindInsufficientFunds:  "insufficient funds",
	KindInsufficientShares: "insufficient shares",
	KindUnknownSymbol:      "unknown symbol",
}

func (e *LedgerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if msg, ok := defaultMessages[e.Kind]; ok {
		return msg
	}
	return string(e.Kind)
}

// Is reports a match against a bare sentinel of the same kind, so
// errors.Is(err, ErrInsufficientFunds) holds for any insufficient-funds
// error regardless of its message.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

func Errorf(kind ErrorKind, format string, args ...any) *LedgerError {
	return &LedgerError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first LedgerError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}
