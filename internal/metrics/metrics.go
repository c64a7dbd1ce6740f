// Package metrics exposes Prometheus instrumentation for room mutations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for the mutations counter.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector holds the ledger's Prometheus metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	mutations   *prometheus.CounterVec
	persist     *prometheus.HistogramVec
	roomsLoaded prometheus.Gauge
}

// New creates a Collector and registers its metrics on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitroom",
			Name:      "mutations_total",
			Help:      "Room mutations by operation and result.",
		}, []string{"op", "result"}),
		persist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitroom",
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing a room to the store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		roomsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "splitroom",
			Name:      "rooms_loaded",
			Help:      "Number of rooms held in memory.",
		}),
	}

	for _, collector := range []prometheus.Collector{c.mutations, c.persist, c.roomsLoaded} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveMutation counts one mutation attempt.
func (c *Collector) ObserveMutation(op string, err error) {
	if c == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.mutations.WithLabelValues(op, result).Inc()
}

// ObservePersist records how long a store write took.
func (c *Collector) ObservePersist(op string, d time.Duration) {
	if c == nil {
		return
	}
	c.persist.WithLabelValues(op).Observe(d.Seconds())
}

// SetRoomsLoaded sets the in-memory room count.
func (c *Collector) SetRoomsLoaded(n int) {
	if c == nil {
		return
	}
	c.roomsLoaded.Set(float64(n))
}
