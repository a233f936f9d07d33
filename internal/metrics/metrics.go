package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace   = "seoscribe"
	maxLabelLen = 64
)

// gateway instrumentation
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	actionErrors    *prometheus.CounterVec
	activeDevices   prometheus.Gauge
	streams         prometheus.Gauge
	pruned          prometheus.Counter
	pruneFailures   prometheus.Counter
}

// creates the gateway metrics on their own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlements",
			Name:      "decisions_total",
			Help:      "Gated actions by action, plan and outcome",
		}, []string{"action", "plan", "outcome"}),
		actionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlements",
			Name:      "action_errors_total",
			Help:      "Failed actions by error category",
		}, []string{"category"}),
		activeDevices: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "devices",
			Name:      "active",
			Help:      "Devices with an entitlement state in memory",
		}),
		streams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "entitlements",
			Name:      "streams",
			Help:      "Open entitlement websocket streams",
		}),
		pruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usage",
			Name:      "pruned_records_total",
			Help:      "Usage records deleted by the prune job",
		}),
		pruneFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usage",
			Name:      "prune_failures_total",
			Help:      "Prune job runs that failed",
		}),
	}
}

// serves the registry for /metrics
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})

	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// records request count and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// counts one gating outcome: allowed, denied, or failed
func (m *Metrics) RecordDecision(action, plan, outcome string) {
	m.decisions.WithLabelValues(sanitizeLabel(action), sanitizeLabel(plan), sanitizeLabel(outcome)).Inc()
}

func (m *Metrics) RecordActionError(category string) {
	m.actionErrors.WithLabelValues(sanitizeLabel(category)).Inc()
}

func (m *Metrics) SetActiveDevices(n int) {
	m.activeDevices.Set(float64(n))
}

func (m *Metrics) StreamOpened() { m.streams.Inc() }

func (m *Metrics) StreamClosed() { m.streams.Dec() }

func (m *Metrics) RecordPrune(deleted int64, err error) {
	if err != nil {
		m.pruneFailures.Inc()
		return
	}

	m.pruned.Add(float64(deleted))
}

// keeps label values short and non-empty
func sanitizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}

	s = strings.ReplaceAll(s, " ", "_")
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}

	return s
}
