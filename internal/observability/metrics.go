package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts authentication operations by event and outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "positiveonly_auth_events_total",
		Help: "Total authentication events by event and outcome",
	}, []string{"event", "outcome"})

	// RememberMeTheft counts remember-me series revoked after a token mismatch.
	RememberMeTheft = promauto.NewCounter(prometheus.CounterOpts{
		Name: "positiveonly_remember_me_theft_total",
		Help: "Total remember-me series revoked because a stale token was presented",
	})

	// ModerationReports counts accepted reports by target type.
	ModerationReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "positiveonly_moderation_reports_total",
		Help: "Total accepted content reports by target",
	}, []string{"target"})

	// ContentHidden counts items hidden by the report threshold.
	ContentHidden = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "positiveonly_content_hidden_total",
		Help: "Total content items hidden after exceeding the report threshold",
	}, []string{"target"})

	// ClassifierRejections counts content refused by the positivity classifiers.
	ClassifierRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "positiveonly_classifier_rejections_total",
		Help: "Total submissions rejected by a classifier",
	}, []string{"kind"})

	// MailFailures counts mail that could not be delivered.
	MailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "positiveonly_mail_failures_total",
		Help: "Total mail delivery failures",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "positiveonly_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// Outcome labels for AuthEvents.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RecordAuthEvent increments AuthEvents for event, labelled by whether err is nil.
func RecordAuthEvent(event string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
