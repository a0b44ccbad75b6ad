// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BackendRequests counts scoring backend calls by route and status.
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showdown_backend_requests_total",
			Help: "Total number of scoring backend requests",
		},
		[]string{"route", "status"},
	)

	// BackendDuration measures scoring backend latency.
	BackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "showdown_backend_request_duration_seconds",
			Help: "Scoring backend request duration in seconds",
		},
		[]string{"route"},
	)

	// Submissions counts submission attempts by kind and result.
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showdown_submissions_total",
			Help: "Total number of submission attempts",
		},
		[]string{"kind", "result"},
	)

	// Decisions counts reviewer decisions by outcome and result.
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showdown_decisions_total",
			Help: "Total number of reviewer decisions",
		},
		[]string{"outcome", "result"},
	)

	// RosterReloads counts roster rebuilds by result.
	RosterReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showdown_roster_reloads_total",
			Help: "Total number of roster reloads",
		},
		[]string{"result"},
	)

	// PendingSubmissions is the queue depth seen by the last scan.
	PendingSubmissions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "showdown_pending_submissions",
			Help: "Submissions waiting for review at the last queue scan",
		},
	)

	once sync.Once
)

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			BackendRequests,
			BackendDuration,
			Submissions,
			Decisions,
			RosterReloads,
			PendingSubmissions,
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveBackend records one backend call.
func ObserveBackend(route, status string, d time.Duration) {
	BackendRequests.WithLabelValues(route, status).Inc()
	BackendDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
