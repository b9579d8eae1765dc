// Package metrics exposes prometheus instrumentation for the session and
// shift engines.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

type Metrics struct {
	SessionsStarted prometheus.Counter
	SessionsClosed  prometheus.Counter
	SessionsDegraded prometheus.Counter
	ShiftsSealed    prometheus.Counter
	CashAlerts      prometheus.Counter
	AuditorRepairs  prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mesa_sessions_started_total",
			Help: "Table sessions started.",
		}),
		SessionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mesa_sessions_closed_total",
			Help: "Table sessions closed with a computed charge.",
		}),
		SessionsDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mesa_sessions_degraded_total",
			Help: "Stop transitions that degraded to a state repair.",
		}),
		ShiftsSealed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mesa_shifts_sealed_total",
			Help: "Daily balances sealed.",
		}),
		CashAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mesa_shift_cash_alerts_total",
			Help: "Shift closures whose blind count missed tolerance.",
		}),
		AuditorRepairs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mesa_auditor_repairs_total",
			Help: "Tables repaired by the integrity auditor.",
		}),
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mesa_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mesa_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// GinMiddleware records request counts and latency.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Module provides the metrics registry.
var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
