// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// CompletionDuration tracks the latency of one outbound completion call.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "Completion request duration by provider and outcome",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	// CompletionsTotal counts completion calls by provider and outcome.
	// Outcome is "success" or the failure class.
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_completions_total",
			Help: "Total completion requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// SessionsTotal tracks chat sessions created.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sessions_total",
			Help: "Total chat sessions created",
		},
		[]string{"variant"},
	)

	// LanguageSelectionsTotal tracks confirmed language choices.
	LanguageSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_language_selections_total",
			Help: "Total confirmed language selections",
		},
		[]string{"locale"},
	)

	// MessagesTotal tracks transcript entries appended during chat.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total messages appended to transcripts",
		},
		[]string{"speaker"},
	)

	// RejectedSendsTotal counts submissions refused because a request was pending.
	RejectedSendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_rejected_sends_total",
			Help: "Submissions rejected while a completion was pending",
		},
	)

	// WarningsTotal counts operator warnings by failure class.
	WarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operator_warnings_total",
			Help: "Operator-visible warnings emitted",
		},
		[]string{"class"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordCompletion records metrics for one completion call.
func RecordCompletion(provider, outcome string, duration float64) {
	CompletionDuration.WithLabelValues(provider, outcome).Observe(duration)
	CompletionsTotal.WithLabelValues(provider, outcome).Inc()
}
