package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	TriagesTotal    *prometheus.CounterVec
	TriageDuration  *prometheus.HistogramVec
	TierErrorsTotal *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	IndexDocs       prometheus.Gauge
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triago_triages_total",
			Help: "Total triage runs by producing tier and final severity.",
		}, []string{"tier", "severity"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triago_triage_duration_seconds",
			Help:    "Duration of triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"tier"}),
		TierErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triago_tier_errors_total",
			Help: "Classifier tier failures that fell through to the next tier.",
		}, []string{"tier"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "triago_evidence_search_duration_seconds",
			Help:    "Duration of evidence index lookups in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms .. ~2.5s
		}),
		IndexDocs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "triago_index_documents",
			Help: "Documents currently held in the evidence index.",
		}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.TierErrorsTotal,
		m.SearchDuration,
		m.IndexDocs,
	)

	return m
}

// Hooks returns pipeline hooks that increment the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnComplete: func(tier Tier, severity string, duration float64) {
			m.TriagesTotal.WithLabelValues(string(tier), severity).Inc()
			m.TriageDuration.WithLabelValues(string(tier)).Observe(duration)
		},
		OnTierError: func(tier Tier) {
			m.TierErrorsTotal.WithLabelValues(string(tier)).Inc()
		},
		OnSearch: func(duration float64) {
			m.SearchDuration.Observe(duration)
		},
	}
}
