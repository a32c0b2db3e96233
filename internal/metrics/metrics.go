// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PageViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_page_views_total",
		Help: "Tracked page views by traffic source",
	}, []string{"source"})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_sessions_started_total",
		Help: "Visitor sessions opened by the tracker",
	})

	Inquiries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_inquiries_total",
		Help: "Contact form submissions stored",
	})

	BountySyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_bounty_sync_runs_total",
		Help: "Bounty sync passes by outcome",
	}, []string{"status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
