package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	LessonsCreated      *prometheus.CounterVec
	ReviewsGenerated    prometheus.Counter
	ReviewTransitions   *prometheus.CounterVec
	ReviewsRescheduled  prometheus.Counter
	WaitingPromoted     prometheus.Counter
	LessonsImported     *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
	RemindersSent       prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics registers the collectors once and returns the shared set.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			LessonsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lesson_review_lessons_created_total",
					Help: "Lessons created, by lesson type",
				},
				[]string{"lesson_type"},
			),
			ReviewsGenerated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lesson_review_reviews_generated_total",
					Help: "Review rows generated for new lessons",
				},
			),
			ReviewTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lesson_review_review_transitions_total",
					Help: "Review completion state changes",
				},
				[]string{"to_status"},
			),
			ReviewsRescheduled: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lesson_review_reviews_rescheduled_total",
					Help: "Pending reviews moved to another date",
				},
			),
			WaitingPromoted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lesson_review_waiting_promoted_total",
					Help: "Waiting lessons promoted into scheduled lessons",
				},
			),
			LessonsImported: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lesson_review_import_rows_total",
					Help: "Rows processed by the lesson importer",
				},
				[]string{"result"},
			),
			EventsPublished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lesson_review_events_published_total",
					Help: "Change events published to subscribers",
				},
				[]string{"event_type", "success"},
			),
			RemindersSent: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lesson_review_reminders_sent_total",
					Help: "Daily due-review reminders published",
				},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lesson_review_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lesson_review_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
		}
	})

	return sharedMetrics
}

func (m *Metrics) RecordEvent(eventType string, success bool) {
	m.EventsPublished.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) RecordTransition(toStatus string) {
	m.ReviewTransitions.WithLabelValues(toStatus).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
