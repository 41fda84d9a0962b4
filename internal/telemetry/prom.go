package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bridges the store into a Prometheus scrape: the newest value of
// every metric is exported as mtd_telemetry_value{metric="..."}.
type Collector struct {
	store *Store
	desc  *prometheus.Desc
}

// NewCollector wraps a store for registration with a Prometheus registry.
func NewCollector(store *Store) *Collector {
	return &Collector{
		store: store,
		desc: prometheus.NewDesc(
			"mtd_telemetry_value",
			"Latest value of an internal telemetry metric.",
			[]string{"metric", "unit"},
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, name := range c.store.Names() {
		p, ok := c.store.Latest(name)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, p.Value, name, p.Unit)
	}
}
