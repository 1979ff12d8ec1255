package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registry's Prometheus metrics.
type Metrics struct {
	PoliciesIssued  prometheus.Counter
	PremiumPayments prometheus.Counter
	PremiumVolume   prometheus.Counter
	ClaimsSubmitted prometheus.Counter
	ClaimsApproved  prometheus.Counter
	ClaimsSettled   prometheus.Counter

	OperationFailures *prometheus.CounterVec
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		PoliciesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbook_policies_issued_total",
			Help: "Policies issued",
		}),
		PremiumPayments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbook_premium_payments_total",
			Help: "Accepted premium payments",
		}),
		PremiumVolume: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbook_premium_volume_total",
			Help: "Accumulated premium volume in the smallest currency unit",
		}),
		ClaimsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbook_claims_submitted_total",
			Help: "Claims submitted",
		}),
		ClaimsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbook_claims_approved_total",
			Help: "Claims approved",
		}),
		ClaimsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbook_claims_settled_total",
			Help: "Claims settled (paid)",
		}),
		OperationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coverbook_operation_failures_total",
			Help: "Failed registry operations by operation and error code",
		}, []string{"operation", "code"}),
	}
}

// IncFailure records one failed operation.
func (m *Metrics) IncFailure(operation, code string) {
	if m == nil {
		return
	}
	m.OperationFailures.WithLabelValues(operation, code).Inc()
}
