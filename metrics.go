package canc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "canc"

// Metrics exposes learner activity to Prometheus. A nil *Metrics records
// nothing.
type Metrics struct {
	records         prometheus.Counter
	outcomes        *prometheus.CounterVec
	builds          *prometheus.CounterVec
	buildDuration   *prometheus.HistogramVec
	storeSize       prometheus.Gauge
	concepts        prometheus.Gauge
	rules           prometheus.Gauge
	touchedConcepts prometheus.Histogram
}

// NewMetrics creates the learner metrics and registers them with reg.
// A nil reg returns nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_total",
			Help:      "Total records learned",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "predictions_total",
			Help:      "Test-then-train predictions by outcome",
		}, []string{"outcome"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "builds_total",
			Help:      "Model builds by kind",
		}, []string{"kind"}),
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "build_duration_seconds",
			Help:      "Model build duration in seconds by kind",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "store_records",
			Help:      "Records currently held in the store",
		}),
		concepts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "concepts",
			Help:      "Concepts in the model",
		}),
		rules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "rules",
			Help:      "Rules in the model",
		}),
		touchedConcepts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "touched_concepts",
			Help:      "Concepts extended per incremental update",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.records, m.outcomes, m.builds, m.buildDuration,
		m.storeSize, m.concepts, m.rules, m.touchedConcepts,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRecord(outcome Outcome) {
	if m == nil {
		return
	}
	m.records.Inc()
	if outcome != OutcomeNone {
		m.outcomes.WithLabelValues(string(outcome)).Inc()
	}
}

func (m *Metrics) observeBuild(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(kind).Inc()
	m.buildDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) observeExtend(touched int) {
	if m == nil {
		return
	}
	m.touchedConcepts.Observe(float64(touched))
}

func (m *Metrics) setModel(storeSize, concepts, rules int) {
	if m == nil {
		return
	}
	m.storeSize.Set(float64(storeSize))
	m.concepts.Set(float64(concepts))
	m.rules.Set(float64(rules))
}
