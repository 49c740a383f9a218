package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics содержит метрики per-order саги сервиса заказов.
type SagaMetrics struct {
	// Счётчик применённых переходов по их имени.
	transitions *prometheus.CounterVec
	// Счётчик проигнорированных событий из-за конфликта статуса.
	conflicts prometheus.Counter
	// Счётчик событий timeline.
	timelineEvents prometheus.Counter

	// Время от создания заказа до терминального статуса.
	sagaDuration prometheus.Histogram
}

// NewSagaMetrics создаёт новый экземпляр метрик саги.
func NewSagaMetrics() *SagaMetrics {
	return newSagaMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSagaMetricsWithRegisterer(registerer prometheus.Registerer) *SagaMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SagaMetrics{
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ofs_saga_transitions_total",
			Help: "Total number of applied order saga transitions",
		}, []string{"transition"}),
		conflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ofs_saga_conflicts_total",
			Help: "Total number of events ignored because the order was already in a conflicting or terminal state",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ofs_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		sagaDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ofs_saga_duration_seconds",
			Help:    "Time from order creation to a terminal status in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordTransition увеличивает счётчик применённого перехода.
func (m *SagaMetrics) RecordTransition(transition string) {
	m.transitions.WithLabelValues(transition).Inc()
}

// RecordConflict увеличивает счётчик проигнорированных событий.
func (m *SagaMetrics) RecordConflict() {
	m.conflicts.Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *SagaMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordSagaDuration записывает время жизни саги до терминального статуса.
func (m *SagaMetrics) RecordSagaDuration(duration time.Duration) {
	m.sagaDuration.Observe(duration.Seconds())
}
