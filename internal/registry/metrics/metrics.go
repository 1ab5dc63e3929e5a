// Package metrics holds the registry module's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks name sales and registry administration.
type Metrics struct {
	Registrations       *prometheus.CounterVec
	PurchaseRejections  *prometheus.CounterVec
	PriceChanges        prometheus.Counter
	OracleErrors        prometheus.Counter
	OperatorWithdrawals *prometheus.CounterVec
}

// New creates and registers the registry metrics.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namedeed_registry_registrations_total",
			Help: "Names sold, by kind (root or child) and currency.",
		}, []string{"kind", "currency"}),
		PurchaseRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namedeed_registry_purchase_rejections_total",
			Help: "Purchases rejected before any state change, by reason.",
		}, []string{"reason"}),
		PriceChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedeed_registry_price_changes_total",
			Help: "Admin price updates applied.",
		}),
		OracleErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedeed_registry_oracle_errors_total",
			Help: "Oracle reads that failed or returned an unusable answer.",
		}),
		OperatorWithdrawals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namedeed_registry_operator_withdrawals_total",
			Help: "Operator revenue withdrawals, per currency.",
		}, []string{"currency"}),
	}
}

// IncrementRegistrations records a completed sale.
func (m *Metrics) IncrementRegistrations(kind, currency string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(kind, currency).Inc()
}

// IncrementPurchaseRejections records a purchase turned away.
func (m *Metrics) IncrementPurchaseRejections(reason string) {
	if m == nil {
		return
	}
	m.PurchaseRejections.WithLabelValues(reason).Inc()
}

// IncrementPriceChanges records an admin price update.
func (m *Metrics) IncrementPriceChanges() {
	if m == nil {
		return
	}
	m.PriceChanges.Inc()
}

// IncrementOracleErrors records an unusable oracle read.
func (m *Metrics) IncrementOracleErrors() {
	if m == nil {
		return
	}
	m.OracleErrors.Inc()
}

// IncrementOperatorWithdrawals records an operator payout.
func (m *Metrics) IncrementOperatorWithdrawals(currency string) {
	if m == nil {
		return
	}
	m.OperatorWithdrawals.WithLabelValues(currency).Inc()
}
