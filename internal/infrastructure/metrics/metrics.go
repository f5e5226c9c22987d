// Package metrics owns the Prometheus registry and the collectors shared by
// the HTTP layer, the entity stores, persistence and the dispatcher.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/socialdesk/core/internal/domain/entities"
)

// Metrics groups the application collectors.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	StoreOperations *prometheus.CounterVec
	StoreRecords    *prometheus.GaugeVec
	Transitions     *prometheus.CounterVec
	StorageFailures *prometheus.CounterVec
	Dispatches      *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_operations_total",
				Help: "Entity store commands by collection, operation and outcome",
			},
			[]string{"collection", "op", "outcome"},
		),
		StoreRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "store_records",
				Help: "Number of records held per collection",
			},
			[]string{"collection"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_transitions_total",
				Help: "Status transitions applied by entity and target status",
			},
			[]string{"entity", "to"},
		),
		StorageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persistence_failures_total",
				Help: "Absorbed persistence failures by operation",
			},
			[]string{"op", "key"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatcher_sends_total",
				Help: "Platform send attempts by platform and outcome",
			},
			[]string{"platform", "outcome"},
		),
	}

	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.StoreOperations,
		m.StoreRecords,
		m.Transitions,
		m.StorageFailures,
		m.Dispatches,
	)
	return m
}

// ObserveStoreOp counts one store command.
func (m *Metrics) ObserveStoreOp(collection, op string, err error) {
	if m == nil {
		return
	}
	m.StoreOperations.WithLabelValues(collection, op, outcome(err)).Inc()
}

// SetStoreSize records the size of a collection.
func (m *Metrics) SetStoreSize(collection string, n int) {
	if m == nil {
		return
	}
	m.StoreRecords.WithLabelValues(collection).Set(float64(n))
}

// ObserveTransition counts an applied status transition.
func (m *Metrics) ObserveTransition(entity, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(entity, to).Inc()
}

// ObserveStorageFailure counts a swallowed persistence failure.
func (m *Metrics) ObserveStorageFailure(op, key string) {
	if m == nil {
		return
	}
	m.StorageFailures.WithLabelValues(op, key).Inc()
}

// ObserveDispatch counts one platform send attempt.
func (m *Metrics) ObserveDispatch(platform string, err error) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(platform, outcome(err)).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(seconds)
}

func outcome(err error) string {
	var ve *entities.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entities.ErrNotFound):
		return "not_found"
	case errors.As(err, &ve):
		return "invalid"
	default:
		return "error"
	}
}
