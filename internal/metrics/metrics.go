// Package metrics exports ledger activity to Prometheus.
package metrics

import (
	"errors"

	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type Collector struct {
	transactions  *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	cashBalance   prometheus.Gauge
	openPositions prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	return &Collector{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Committed ledger transactions by type",
			},
			[]string{"type"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Rejected ledger operations by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		cashBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cash_balance",
			Help:      "Current cash balance of the account",
		}),
		openPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Number of symbols currently held",
		}),
	}
}

func (c *Collector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.transactions,
		c.rejections,
		c.cashBalance,
		c.openPositions,
	}
	for _, col := range collectors {
		if err := registry.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (c *Collector) RecordTransaction(tx domain.Transaction) {
	c.transactions.WithLabelValues(string(tx.Type)).Inc()
}

// RecordRejection counts a failed operation. Errors that are not ledger
// errors are reported with reason "internal".
func (c *Collector) RecordRejection(operation string, err error) {
	reason := "internal"
	if kind, ok := domain.KindOf(err); ok {
		reason = kind.String()
	}
	c.rejections.WithLabelValues(operation, reason).Inc()
}

func (c *Collector) RecordBalances(cash decimal.Decimal, positions int) {
	c.cashBalance.Set(cash.InexactFloat64())
	c.openPositions.Set(float64(positions))
}
