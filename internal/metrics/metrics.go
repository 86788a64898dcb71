// Package metrics collects Prometheus metrics and serves /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the observer interfaces of the venue, moderation and
// realtime packages.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	submissions  *prometheus.CounterVec
	moderation   *prometheus.CounterVec
	wsOpen       *prometheus.GaugeVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workspots_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workspots_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workspots_submissions_total",
			Help: "Place submissions by outcome.",
		}, []string{"result"}),
		moderation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workspots_moderation_actions_total",
			Help: "Completed moderation actions.",
		}, []string{"action"}),
		wsOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workspots_websocket_connections",
			Help: "Open WebSocket connections by stream.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.submissions,
		c.moderation,
		c.wsOpen,
	)
	return c
}

func (c *Collector) ObserveSubmission(result string) {
	c.submissions.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveModeration(action string) {
	c.moderation.WithLabelValues(action).Inc()
}

func (c *Collector) WSConnected(kind string) {
	c.wsOpen.WithLabelValues(kind).Inc()
}

func (c *Collector) WSDisconnected(kind string) {
	c.wsOpen.WithLabelValues(kind).Dec()
}

// RecordHTTP records one finished request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Middleware records every request passing through the engine.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		c.RecordHTTP(ctx.Request.Method, ctx.FullPath(), ctx.Writer.Status(), time.Since(start))
	}
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
