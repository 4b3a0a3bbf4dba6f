// Package metrics provides Prometheus metrics for decoding.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ctcdecode"

// Metrics holds the decoder metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	DecodeCalls      prometheus.Counter
	DecodeErrors     *prometheus.CounterVec
	DecodeDuration   prometheus.Histogram
	BatchItems       prometheus.Counter
	Timesteps        prometheus.Counter
	CapacityShortage prometheus.Counter

	TrieBuilds   *prometheus.CounterVec
	TrieWords    prometheus.Counter
	TrieSkipped  prometheus.Counter
	ScorerReconf prometheus.Counter
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DecodeCalls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_calls_total",
			Help:      "Total number of decode calls",
		}),
		DecodeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total number of rejected decode calls",
		}, []string{"kind"}),
		DecodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Wall time of decode calls in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		BatchItems: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Total number of batch items decoded",
		}),
		Timesteps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timesteps_total",
			Help:      "Total number of timesteps expanded across batch items",
		}),
		CapacityShortage: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_shortfall_total",
			Help:      "Total number of padded result slots (fewer surviving hypotheses than top paths)",
		}),
		TrieBuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trie_builds_total",
			Help:      "Total number of trie builds by outcome",
		}, []string{"outcome"}),
		TrieWords: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trie_words_total",
			Help:      "Total number of words inserted into tries",
		}),
		TrieSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trie_duplicate_words_total",
			Help:      "Total number of duplicate dictionary words skipped",
		}),
		ScorerReconf: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_reconfigurations_total",
			Help:      "Total number of scorer weight changes",
		}),
	}
}

// RecordDecode records a successful decode call.
func (m *Metrics) RecordDecode(batch, timesteps, shortfall int, seconds float64) {
	if m == nil {
		return
	}
	m.DecodeCalls.Inc()
	m.DecodeDuration.Observe(seconds)
	m.BatchItems.Add(float64(batch))
	m.Timesteps.Add(float64(timesteps))
	m.CapacityShortage.Add(float64(shortfall))
}

// RecordDecodeError records a decode call rejected before any work started.
func (m *Metrics) RecordDecodeError(kind string) {
	if m == nil {
		return
	}
	m.DecodeCalls.Inc()
	m.DecodeErrors.WithLabelValues(kind).Inc()
}

// RecordTrieBuild records the outcome of a trie build.
func (m *Metrics) RecordTrieBuild(words, skipped int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.TrieBuilds.WithLabelValues("failed").Inc()
		return
	}
	m.TrieBuilds.WithLabelValues("ok").Inc()
	m.TrieWords.Add(float64(words))
	m.TrieSkipped.Add(float64(skipped))
}

// RecordReconfigure records a scorer weight change.
func (m *Metrics) RecordReconfigure() {
	if m == nil {
		return
	}
	m.ScorerReconf.Inc()
}
