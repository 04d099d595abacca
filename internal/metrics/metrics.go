// Package metrics provides Prometheus metrics for action normalization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "checkngn"

// Metrics holds all Prometheus metrics for checkngn.
// Pass to components that need to record metrics.
type Metrics struct {
	Normalizations *prometheus.CounterVec
	RecordsTotal   prometheus.Counter
	CacheLookups   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Normalizations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "normalizations_total",
				Help:      "Total action descriptors normalized",
			},
			[]string{"shape", "result"}, // shape=identifier/pair/mapping/list/invalid, result=ok/error
		),
		RecordsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Total action records produced",
			},
		),
		CacheLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Record cache lookups",
			},
			[]string{"result"}, // result=hit/miss/bypass
		),
	}
}

// WriteTextfile writes all metrics gathered from g to path in the text
// exposition format, suitable for the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
