package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics tracks the size and freshness of the plan catalog.
type CatalogMetrics struct {
	plans       *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
}

// NewCatalogMetrics registers the catalog gauges on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	plans := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_plans",
		Help:      "Number of plans loaded by the last successful sync, by source.",
	}, []string{"source"})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_last_sync_timestamp_seconds",
		Help:      "Unix time of the last successful catalog sync.",
	})
	reg.MustRegister(plans, lastSuccess)
	return &CatalogMetrics{plans: plans, lastSuccess: lastSuccess}
}

// ObserveSync records a successful catalog replacement.
func (c *CatalogMetrics) ObserveSync(source string, count int, at time.Time) {
	if c == nil || c.plans == nil {
		return
	}
	c.plans.Reset()
	c.plans.WithLabelValues(normalizeLabel(source)).Set(float64(count))
	c.lastSuccess.Set(float64(at.Unix()))
}
