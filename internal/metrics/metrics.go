package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LeadsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "garageleadly_leads_submitted_total",
			Help: "Total number of leads accepted by intake",
		},
	)

	AssignmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageleadly_assignment_outcomes_total",
			Help: "Assignment attempts by action and reason",
		},
		[]string{"action", "reason"},
	)

	AssignmentConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "garageleadly_assignment_conflicts_total",
			Help: "Conditional lead writes lost to a concurrent assignment",
		},
	)

	AssignmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "garageleadly_assignment_duration_seconds",
			Help:    "Duration of an auto-assignment run in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageleadly_notifications_sent_total",
			Help: "Lead notifications delivered by channel",
		},
		[]string{"channel"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageleadly_notifications_failed_total",
			Help: "Lead notifications that failed by channel",
		},
		[]string{"channel"},
	)

	Charges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageleadly_lead_charges_total",
			Help: "Per-lead charges by resulting status",
		},
		[]string{"status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageleadly_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
