package entity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SchedulerMetrics provides Prometheus-compatible metrics collection for
// entity scheduler execution, grounded on the teacher's PrometheusMetrics
// (graph/metrics.go) — same factory-and-registry shape, same "enabled"
// guard, different label/metric set for the entity-scheduler domain:
//
//  1. queue_depth (gauge): pending messages per entity. Labels: class, key.
//  2. batch_size (histogram): operations/signals per executed batch.
//     Labels: class.
//  3. locked_entities (gauge): entities currently holding a lock. Labels:
//     class.
//  4. iterations_total (counter): scheduler-loop activations. Labels:
//     class, terminated (true/false).
//  5. operation_failures_total (counter): user operation failures captured
//     per §7. Labels: class, operation.
type SchedulerMetrics struct {
	queueDepth        *prometheus.GaugeVec
	batchSize         *prometheus.HistogramVec
	lockedEntities    *prometheus.GaugeVec
	iterationsTotal   *prometheus.CounterVec
	operationFailures *prometheus.CounterVec

	registry prometheus.Registerer
	enabled  bool
}

// NewSchedulerMetrics registers all entity-scheduler metrics with registry.
// Pass nil to use prometheus.DefaultRegisterer.
func NewSchedulerMetrics(registry prometheus.Registerer) *SchedulerMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	m := &SchedulerMetrics{registry: registry, enabled: true}

	m.queueDepth = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "entity_scheduler",
		Name:      "queue_depth",
		Help:      "Pending messages queued for an entity.",
	}, []string{"class", "key"})

	m.batchSize = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "entity_scheduler",
		Name:      "batch_size",
		Help:      "Number of operations and signals executed per batch.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"class"})

	m.lockedEntities = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "entity_scheduler",
		Name:      "locked_entities",
		Help:      "Entities currently holding a distributed lock.",
	}, []string{"class"})

	m.iterationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entity_scheduler",
		Name:      "iterations_total",
		Help:      "Scheduler loop activations, by whether they terminated the orchestration.",
	}, []string{"class", "terminated"})

	m.operationFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entity_scheduler",
		Name:      "operation_failures_total",
		Help:      "User operation failures captured per request.",
	}, []string{"class", "operation"})

	return m
}

// ObserveQueueDepth records the current queue length for one entity.
func (m *SchedulerMetrics) ObserveQueueDepth(id EntityId, depth int) {
	if m == nil || !m.enabled {
		return
	}
	m.queueDepth.WithLabelValues(id.ClassName, id.Key).Set(float64(depth))
}

// ObserveBatch records the size of an executed batch.
func (m *SchedulerMetrics) ObserveBatch(className string, size int) {
	if m == nil || !m.enabled {
		return
	}
	m.batchSize.WithLabelValues(className).Observe(float64(size))
}

// SetLockedEntities sets the gauge of currently-locked entities for a class.
func (m *SchedulerMetrics) SetLockedEntities(className string, count int) {
	if m == nil || !m.enabled {
		return
	}
	m.lockedEntities.WithLabelValues(className).Set(float64(count))
}

// ObserveIteration records one scheduler-loop activation.
func (m *SchedulerMetrics) ObserveIteration(className string, terminated bool) {
	if m == nil || !m.enabled {
		return
	}
	m.iterationsTotal.WithLabelValues(className, boolLabel(terminated)).Inc()
}

// ObserveOperationFailure records a captured user operation failure (§7).
func (m *SchedulerMetrics) ObserveOperationFailure(className, operation string) {
	if m == nil || !m.enabled {
		return
	}
	m.operationFailures.WithLabelValues(className, operation).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
