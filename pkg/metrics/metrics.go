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
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SignupsTotal tracks total successful signups.
	SignupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signups_total",
			Help: "Total successful signups",
		},
	)

	// LoginsTotal tracks login attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total login attempts",
		},
		[]string{"outcome"},
	)

	// ConversationsTotal tracks total conversations started.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations started",
		},
	)

	// ChatTurnsTotal tracks total chat turns by requested model.
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total chat turns persisted",
		},
		[]string{"model"},
	)

	// QuotaDenialsTotal tracks chat requests denied by the daily quota.
	QuotaDenialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_denials_total",
			Help: "Chat requests denied by the daily message quota",
		},
	)

	// ResponderDuration tracks responder dispatch duration.
	ResponderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "responder_duration_seconds",
			Help:    "Responder dispatch duration in seconds",
			Buckets: []float64{.001, .01, .1, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model"},
	)

	// ResponderTokensTotal tracks estimated tokens through the responder.
	ResponderTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "responder_tokens_total",
			Help: "Estimated tokens processed by the responder",
		},
		[]string{"model", "direction"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordChatTurn records metrics for a completed chat turn.
func RecordChatTurn(model string, duration float64, promptTokens, responseTokens int) {
	ChatTurnsTotal.WithLabelValues(model).Inc()
	ResponderDuration.WithLabelValues(model).Observe(duration)
	ResponderTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	ResponderTokensTotal.WithLabelValues(model, "response").Add(float64(responseTokens))
}
