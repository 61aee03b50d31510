package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	classifications *prometheus.CounterVec
	ticketsCreated  *prometheus.CounterVec
	intakeOutcomes  *prometheus.CounterVec
}

// NewMetrics registers all collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complaint_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_classifier_calls_total",
			Help: "Classifier calls by failure class (empty when successful).",
		}, []string{"failure"}),
		ticketsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_tickets_created_total",
			Help: "Tickets created by category and priority.",
		}, []string{"category", "priority"}),
		intakeOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_intake_outcomes_total",
			Help: "Intake results: created, duplicate, no_ticket, persist_failed.",
		}, []string{"outcome"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordClassification counts one classifier call.
func (m *Metrics) RecordClassification(failure string) {
	if m == nil {
		return
	}
	if failure == "" {
		failure = "none"
	}
	m.classifications.WithLabelValues(failure).Inc()
}

// RecordTicketCreated counts one persisted ticket.
func (m *Metrics) RecordTicketCreated(category, priority string) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(category, priority).Inc()
}

// RecordIntakeOutcome counts how an intake request ended.
func (m *Metrics) RecordIntakeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.intakeOutcomes.WithLabelValues(outcome).Inc()
}
