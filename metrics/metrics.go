package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "enrollsaga"

// Metrics holds every collector of the engine. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SagaExecutions    *prometheus.CounterVec
	StepFailures      *prometheus.CounterVec
	SagaDuration      *prometheus.HistogramVec
	EventsPublished   *prometheus.CounterVec
	CoordinatorEvents *prometheus.CounterVec
	PackagesProcessed *prometheus.CounterVec
	DeadLetters       *prometheus.CounterVec
	IdempotentSkips   *prometheus.CounterVec
}

// New creates collectors and registers them in reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SagaExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_executions_total",
			Help:      "Finished saga executions by result.",
		}, []string{"result"}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_step_failures_total",
			Help:      "Failed saga steps by step name and kind of failure.",
		}, []string{"step", "kind"}),
		SagaDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "saga_duration_seconds",
			Help:      "Duration of saga executions including compensation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_events_published_total",
			Help:      "Saga lifecycle events handed to the bus by result.",
		}, []string{"result"}),
		CoordinatorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinator_events_total",
			Help:      "Saga events observed by the coordinator by outcome.",
		}, []string{"outcome"}),
		PackagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_packages_total",
			Help:      "Packages processed by the subscriber by origin and result.",
		}, []string{"origin", "result"}),
		DeadLetters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deadletter_publish_total",
			Help:      "Dead letter records by original topic and publish result.",
		}, []string{"topic", "result"}),
		IdempotentSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_skips_total",
			Help:      "Events skipped because their id was already processed.",
		}, []string{"consumer"}),
	}

	reg.MustRegister(
		m.SagaExecutions,
		m.StepFailures,
		m.SagaDuration,
		m.EventsPublished,
		m.CoordinatorEvents,
		m.PackagesProcessed,
		m.DeadLetters,
		m.IdempotentSkips,
	)

	return m
}

func (m *Metrics) SagaFinished(result string, seconds float64) {
	if m == nil {
		return
	}
	m.SagaExecutions.WithLabelValues(result).Inc()
	m.SagaDuration.WithLabelValues(result).Observe(seconds)
}

func (m *Metrics) StepFailed(step, kind string) {
	if m == nil {
		return
	}
	m.StepFailures.WithLabelValues(step, kind).Inc()
}

func (m *Metrics) EventPublished(result string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(result).Inc()
}

func (m *Metrics) CoordinatorEvent(outcome string) {
	if m == nil {
		return
	}
	m.CoordinatorEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PackageProcessed(origin, result string) {
	if m == nil {
		return
	}
	m.PackagesProcessed.WithLabelValues(origin, result).Inc()
}

func (m *Metrics) DeadLetter(topic, result string) {
	if m == nil {
		return
	}
	m.DeadLetters.WithLabelValues(topic, result).Inc()
}

func (m *Metrics) IdempotentSkip(consumer string) {
	if m == nil {
		return
	}
	m.IdempotentSkips.WithLabelValues(consumer).Inc()
}
