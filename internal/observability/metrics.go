package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for HTTP traffic and the SLA sweep.
type Metrics struct {
	registry *prometheus.Registry

	requestCount  *prometheus.CounterVec
	requestTiming *prometheus.HistogramVec
	errorCount    *prometheus.CounterVec

	sweepProcessed  prometheus.Counter
	sweepReminders  prometheus.Counter
	sweepEscalated  prometheus.Counter
	sweepFailures   prometheus.Counter
	sweepLastRun    prometheus.Gauge
	notificationOut *prometheus.CounterVec
}

// NewMetrics initializes and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grm_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grm_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grm_http_errors_total",
			Help: "Request errors by route, method and error code.",
		}, []string{"route", "method", "code"}),
		sweepProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grm_sla_sweep_processed_total",
			Help: "Grievances examined by the SLA monitor sweep.",
		}),
		sweepReminders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grm_sla_sweep_reminders_total",
			Help: "Reminder notifications emitted by the sweep.",
		}),
		sweepEscalated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grm_sla_sweep_escalations_total",
			Help: "Auto-escalations performed by the sweep.",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grm_sla_sweep_failures_total",
			Help: "Per-grievance failures tolerated by the sweep.",
		}),
		sweepLastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grm_sla_sweep_last_run_timestamp",
			Help: "Unix time of the last completed sweep.",
		}),
		notificationOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grm_notifications_dispatched_total",
			Help: "Notifications accepted for delivery by event type.",
		}, []string{"event_type"}),
	}

	registry.MustRegister(
		m.requestCount,
		m.requestTiming,
		m.errorCount,
		m.sweepProcessed,
		m.sweepReminders,
		m.sweepEscalated,
		m.sweepFailures,
		m.sweepLastRun,
		m.notificationOut,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestTiming.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(route, method, code).Inc()
}

// RecordSweep updates sweep counters after a completed run.
func (m *Metrics) RecordSweep(processed, reminders, escalated, failures int) {
	if m == nil {
		return
	}
	m.sweepProcessed.Add(float64(processed))
	m.sweepReminders.Add(float64(reminders))
	m.sweepEscalated.Add(float64(escalated))
	m.sweepFailures.Add(float64(failures))
	m.sweepLastRun.SetToCurrentTime()
}

// RecordNotification counts one accepted dispatch.
func (m *Metrics) RecordNotification(eventType string) {
	if m == nil {
		return
	}
	m.notificationOut.WithLabelValues(eventType).Inc()
}
