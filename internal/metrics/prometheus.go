package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the pipeline's Prometheus instruments.
type Recorder struct {
	sourceFetches   *prometheus.CounterVec
	itemsCollected  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	llmCalls        *prometheus.CounterVec
	eventLevel      *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the instruments on reg. Pass prometheus.DefaultRegisterer in production
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		sourceFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_source_fetches_total",
				Help: "Feed and job-posting fetches by outcome",
			},
			[]string{"kind", "outcome"},
		),
		itemsCollected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_items_collected_total",
				Help: "Text items collected by source kind",
			},
			[]string{"kind"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_cache_lookups_total",
				Help: "Collector cache lookups by result",
			},
			[]string{"result"},
		),
		llmCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_llm_calls_total",
				Help: "LLM sentiment calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		eventLevel: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_event_signals_total",
				Help: "Generated event signals by level",
			},
			[]string{"level"},
		),
		recommendations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_recommendations_total",
				Help: "Recommendations produced by action",
			},
			[]string{"action"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Nop returns a Recorder registered on a throwaway registry.
func Nop() *Recorder {
	return New(prometheus.NewRegistry())
}

func (r *Recorder) SourceFetch(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.sourceFetches.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) ItemsCollected(kind string, n int) {
	r.itemsCollected.WithLabelValues(kind).Add(float64(n))
}

func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) LLMCall(provider, outcome string) {
	r.llmCalls.WithLabelValues(provider, outcome).Inc()
}

func (r *Recorder) EventSignal(level string) {
	r.eventLevel.WithLabelValues(level).Inc()
}

func (r *Recorder) Recommendation(action string) {
	r.recommendations.WithLabelValues(action).Inc()
}

// ObserveSince records the time elapsed since start for op.
func (r *Recorder) ObserveSince(op string, start time.Time) {
	r.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
