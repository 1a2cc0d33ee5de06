package core

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records service operations. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	records    *prometheus.GaugeVec
}

// NewMetrics registers the tillage collectors on reg. A nil reg creates
// unregistered collectors, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillage_operations_total",
				Help: "Total number of store operations by collection, operation and outcome",
			},
			[]string{"collection", "operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tillage_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "operation"},
		),
		records: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tillage_records",
				Help: "Number of records seen in a collection on the last listing",
			},
			[]string{"collection"},
		),
	}
}

func (m *Metrics) observe(collection, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(collection, operation, outcome(err)).Inc()
	m.duration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setRecords(collection string, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(collection).Set(float64(n))
}

// Operations exposes the operation counter, mostly for tests.
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrReadOnly):
		return "read_only"
	default:
		return "error"
	}
}
