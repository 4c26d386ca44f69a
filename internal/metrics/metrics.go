// Package metrics holds the Prometheus collectors of the catalog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

// Sync instruments the index sync coordinator.
type Sync struct {
	QueueDepth prometheus.Gauge
	Inflight   prometheus.Gauge
	Enqueued   *prometheus.CounterVec   // kind, op
	Coalesced  *prometheus.CounterVec   // kind
	Applied    *prometheus.CounterVec   // kind, op
	Retries    *prometheus.CounterVec   // kind
	Failures   *prometheus.CounterVec   // kind, code
	Lag        *prometheus.HistogramVec // kind; commit to apply
	Rebuilds   prometheus.Counter
	Replayed   prometheus.Counter
}

// Store instruments catalog operations.
type Store struct {
	Operations *prometheus.CounterVec   // kind, op, code
	Duration   *prometheus.HistogramVec // kind, op
}

// Metrics is the full set of catalog collectors on one registry.
type Metrics struct {
	Registry *prometheus.Registry
	Sync     *Sync
	Store    *Store
}

// New registers every collector on reg. A nil reg gets a fresh registry
// with the Go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Sync: &Sync{
			QueueDepth: f.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "queue_depth",
				Help:      "Number of pending index tasks",
			}),
			Inflight: f.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "inflight",
				Help:      "Number of index tasks being applied",
			}),
			Enqueued: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "enqueued_total",
				Help:      "Total number of index tasks enqueued",
			}, []string{"kind", "op"}),
			Coalesced: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "coalesced_total",
				Help:      "Total number of index tasks merged into pending work",
			}, []string{"kind"}),
			Applied: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "applied_total",
				Help:      "Total number of index tasks applied",
			}, []string{"kind", "op"}),
			Retries: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "retries_total",
				Help:      "Total number of index task retries",
			}, []string{"kind"}),
			Failures: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "failures_total",
				Help:      "Total number of failed index task attempts",
			}, []string{"kind", "code"}),
			Lag: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "lag_seconds",
				Help:      "Time from commit to index apply",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			}, []string{"kind"}),
			Rebuilds: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "rebuilds_total",
				Help:      "Total number of full index rebuilds",
			}),
			Replayed: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index_sync",
				Name:      "replayed_total",
				Help:      "Total number of journaled tasks replayed on start",
			}),
		},
		Store: &Store{
			Operations: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of catalog operations by result code",
			}, []string{"kind", "op", "code"}),
			Duration: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Catalog operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			}, []string{"kind", "op"}),
		},
	}
}

// Discard returns collectors registered on a private registry, for tests
// and callers that do not expose metrics.
func Discard() *Metrics {
	return New(prometheus.NewRegistry())
}
