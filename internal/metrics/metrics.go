// Package metrics registers the daemon's Prometheus collectors and exposes
// the typed helpers the rest of the code records through.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questboard_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"route", "code"})

	actionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questboard_action_runs_total",
		Help: "Action executions, by skill and outcome.",
	}, []string{"skill", "outcome"})

	actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "questboard_action_duration_seconds",
		Help:    "Wall time of external action invocations.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"skill"})

	streamConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "questboard_stream_connections",
		Help: "Currently attached progress stream subscribers.",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questboard_events_published_total",
		Help: "Progress events published to the bus, by type.",
	}, []string{"type"})
)

// RecordRequest counts one served HTTP request.
func RecordRequest(route string, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

// RecordActionRun counts one action execution with its outcome
// ("ok", "failed", "timeout", "rejected").
func RecordActionRun(skill, outcome string) {
	actionRuns.WithLabelValues(skill, outcome).Inc()
}

// ObserveActionDuration records the wall time of one invocation.
func ObserveActionDuration(skill string, seconds float64) {
	actionDuration.WithLabelValues(skill).Observe(seconds)
}

// AddStreamConnection increments the subscriber gauge.
func AddStreamConnection() { streamConnections.Inc() }

// RemoveStreamConnection decrements the subscriber gauge.
func RemoveStreamConnection() { streamConnections.Dec() }

// RecordEvent counts one published progress event.
func RecordEvent(eventType string) { eventsPublished.WithLabelValues(eventType).Inc() }

// Handler returns the /metrics scrape handler.
func Handler() http.Handler { return promhttp.Handler() }
