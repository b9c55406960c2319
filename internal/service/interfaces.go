package service

import (
	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

type metricsRecorder interface {
	RecordTransaction(tx domain.Transaction)
	RecordRejection(operation string, err error)
	RecordBalances(cash decimal.Decimal, positions int)
}

type noopMetrics struct{}

func (noopMetrics) RecordTransaction(domain.Transaction) {}
func (noopMetrics) RecordRejection(string, error)       {}
func (noopMetrics) RecordBalances(decimal.Decimal, int)  {}
