package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	evaluationsTotal          *prometheus.CounterVec
	evaluationLatencySeconds  *prometheus.HistogramVec
	schedulerRunsTotal        *prometheus.CounterVec
	schedulerDurationSeconds  *prometheus.HistogramVec
	submissionEventsPublished *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedback_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_evaluations_total",
			Help: "Submission evaluations by trigger and outcome.",
		}, []string{"source", "outcome"})

		evaluationLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedback_evaluation_latency_seconds",
			Help:    "End to end evaluation latency.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		}, []string{"source"})

		schedulerRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_scheduler_runs_total",
			Help: "Scheduled job runs by outcome.",
		}, []string{"job", "outcome"})

		schedulerDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedback_scheduler_duration_seconds",
			Help:    "Duration of scheduled job runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"job"})

		submissionEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_submission_events_published_total",
			Help: "Submission events published per transport.",
		}, []string{"transport", "status"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			evaluationsTotal,
			evaluationLatencySeconds,
			schedulerRunsTotal,
			schedulerDurationSeconds,
			submissionEventsPublished,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Evaluations counts evaluations labelled by source (intake, revision, auto_retry) and outcome.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// EvaluationLatency exposes the evaluation latency histogram.
func EvaluationLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return evaluationLatencySeconds
}

// SchedulerRuns counts scheduled job runs labelled success, failure or skipped.
func SchedulerRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return schedulerRunsTotal
}

// SchedulerDuration exposes the scheduled job duration histogram.
func SchedulerDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return schedulerDurationSeconds
}

// SubmissionEventsPublished counts broker publishes.
func SubmissionEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionEventsPublished
}
