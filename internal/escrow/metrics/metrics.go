// Package metrics holds the escrow module's Prometheus metrics.
package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks escrow ledger activity.
type Metrics struct {
	Credits          *prometheus.CounterVec
	Withdrawals      *prometheus.CounterVec
	WithdrawFailures *prometheus.CounterVec
	FrozenBalance    *prometheus.GaugeVec
}

// New creates and registers the escrow metrics.
func New() *Metrics {
	return &Metrics{
		Credits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namedeed_escrow_credits_total",
			Help: "Escrow credits recorded for name owners.",
		}, []string{"currency"}),
		Withdrawals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namedeed_escrow_withdrawals_total",
			Help: "Successful escrow withdrawals by name owners.",
		}, []string{"currency"}),
		WithdrawFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namedeed_escrow_withdraw_failures_total",
			Help: "Escrow withdrawals rejected by the outbound transfer rail.",
		}, []string{"currency"}),
		FrozenBalance: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "namedeed_escrow_frozen_balance",
			Help: "Aggregate funds owed to name owners, per currency.",
		}, []string{"currency"}),
	}
}

// IncrementCredits records a credit and moves the frozen gauge.
func (m *Metrics) IncrementCredits(currency string, amount *big.Int) {
	if m == nil {
		return
	}
	m.Credits.WithLabelValues(currency).Inc()
	m.FrozenBalance.WithLabelValues(currency).Add(approx(amount))
}

// IncrementWithdrawals records a successful withdrawal and moves the
// frozen gauge.
func (m *Metrics) IncrementWithdrawals(currency string, amount *big.Int) {
	if m == nil {
		return
	}
	m.Withdrawals.WithLabelValues(currency).Inc()
	m.FrozenBalance.WithLabelValues(currency).Sub(approx(amount))
}

// IncrementWithdrawFailures records a payout rejected by the rail.
func (m *Metrics) IncrementWithdrawFailures(currency string) {
	if m == nil {
		return
	}
	m.WithdrawFailures.WithLabelValues(currency).Inc()
}

// approx converts a ledger amount for gauge use; float precision is fine
// for observability.
func approx(amount *big.Int) float64 {
	f, _ := new(big.Float).SetInt(amount).Float64()
	return f
}
