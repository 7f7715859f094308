package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OrderOutcomeCreated   = "created"
	OrderOutcomeRejected  = "rejected"
	OrderOutcomeInvalid   = "invalid"
	AllocationReady       = "ready"
	AllocationPending     = "pending"
	AllocationQueryFailed = "query_failed"
)

// OrderMetrics counts order workflow outcomes.
type OrderMetrics struct {
	orders      *prometheus.CounterVec
	allocations *prometheus.CounterVec
}

// NewOrderMetrics registers the order counters on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_total",
		Help:      "Order attempts by outcome.",
	}, []string{"outcome"})
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_allocations_total",
		Help:      "Allocation poll results for created orders.",
	}, []string{"result"})
	reg.MustRegister(orders, allocations)
	return &OrderMetrics{orders: orders, allocations: allocations}
}

// IncOrder increments the order counter for the given outcome.
func (o *OrderMetrics) IncOrder(outcome string) {
	if o == nil || o.orders == nil {
		return
	}
	o.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncAllocation increments the allocation counter for the given poll result.
func (o *OrderMetrics) IncAllocation(result string) {
	if o == nil || o.allocations == nil {
		return
	}
	o.allocations.WithLabelValues(normalizeLabel(result)).Inc()
}
