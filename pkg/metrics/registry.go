// Package metrics provides Prometheus metrics for the grow cycle engine and
// its HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry manages all Prometheus metrics for growhub.
type Registry struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Engine metrics
	evaluationsTotal    prometheus.Counter
	transitionsTotal    prometheus.Counter
	scheduleWrites      prometheus.Counter
	scheduleRemovals    prometheus.Counter
	startConflictsTotal prometheus.Counter
}

// NewRegistry creates a metrics registry with process and runtime collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "growhub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "growhub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		evaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "growhub",
			Subsystem: "engine",
			Name:      "cycle_evaluations_total",
			Help:      "Total cycle evaluations performed.",
		}),
		transitionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "growhub",
			Subsystem: "engine",
			Name:      "stage_transitions_total",
			Help:      "Total stage transitions performed.",
		}),
		scheduleWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "growhub",
			Subsystem: "engine",
			Name:      "schedule_entries_written_total",
			Help:      "Total schedule entries materialized to device state.",
		}),
		scheduleRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "growhub",
			Subsystem: "engine",
			Name:      "schedule_entries_removed_total",
			Help:      "Total schedule entries retracted from device state.",
		}),
		startConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "growhub",
			Subsystem: "engine",
			Name:      "start_conflicts_total",
			Help:      "Cycle starts rejected because an active cycle existed.",
		}),
	}

	reg.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.evaluationsTotal,
		r.transitionsTotal,
		r.scheduleWrites,
		r.scheduleRemovals,
		r.startConflictsTotal,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return r
}

// RecordHTTPRequest records one completed HTTP request.
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordEvaluation counts one cycle evaluation.
func (r *Registry) RecordEvaluation() {
	r.evaluationsTotal.Inc()
}

// RecordTransition counts one stage transition.
func (r *Registry) RecordTransition() {
	r.transitionsTotal.Inc()
}

// RecordScheduleWrites counts materialized schedule entries.
func (r *Registry) RecordScheduleWrites(n int) {
	r.scheduleWrites.Add(float64(n))
}

// RecordRetraction counts retracted schedule entries.
func (r *Registry) RecordRetraction(n int) {
	r.scheduleRemovals.Add(float64(n))
}

// RecordStartConflict counts a start rejected by the one-active-cycle
// invariant.
func (r *Registry) RecordStartConflict() {
	r.startConflictsTotal.Inc()
}
