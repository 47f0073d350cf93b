package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_ai_requests_total",
			Help: "Total number of requests to the text generation provider.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stories_ai_request_duration_seconds",
			Help:    "Histogram of text generation request durations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stories_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stories_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)

	speechRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_speech_requests_total",
			Help: "Total number of speech synthesis requests.",
		},
		[]string{"status"},
	)
	speechRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stories_speech_request_duration_seconds",
			Help:    "Histogram of speech synthesis durations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		},
	)

	replenishRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_replenish_runs_total",
			Help: "Replenishment runs by collection and outcome.",
		},
		[]string{"collection", "outcome"},
	)
	replenishStoriesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_replenish_created_total",
			Help: "AI stories persisted by replenishment.",
		},
		[]string{"collection"},
	)
	replenishCandidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_replenish_candidates_skipped_total",
			Help: "Parsed candidates that were not persisted.",
		},
		[]string{"collection", "reason"},
	)
	audioReusedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stories_audio_reused_total",
			Help: "Stories that reused audio of an existing story.",
		},
	)
	regenerationTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_regeneration_tasks_total",
			Help: "Background replacement tasks by outcome.",
		},
		[]string{"status"},
	)
)
