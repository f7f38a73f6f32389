package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_searches_started_total",
		Help: "Total number of radar runs started, labelled by mode.",
	}, []string{"mode"})

	SourceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_source_events_total",
		Help: "Total number of normalized events returned, labelled by source.",
	}, []string{"source"})

	SourceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radar_source_duration_seconds",
		Help:    "Per-source adapter call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "radar_search_duration_seconds",
		Help:    "End-to-end radar run latency, fan-out and extraction included.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
	})

	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_llm_calls_total",
		Help: "Total number of text-understanding calls, labelled by kind and status.",
	}, []string{"kind", "status"})

	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radar_quota_rejections_total",
		Help: "Total number of derived-input calls rejected by the daily quota.",
	})

	StreamsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radar_streams_open",
		Help: "Currently open result streams.",
	})
)
