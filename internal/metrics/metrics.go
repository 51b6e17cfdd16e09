package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huntress_login_attempts_total",
		Help: "Total number of login attempts, labelled by outcome.",
	}, []string{"outcome"})

	SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huntress_sessions_revoked_total",
		Help: "Total number of sessions removed by logout or lazy expiry.",
	})

	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huntress_access_decisions_total",
		Help: "Total number of access guard decisions, labelled by required role and outcome.",
	}, []string{"role", "outcome"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huntress_webhook_deliveries_total",
		Help: "Total number of CRM webhook deliveries, labelled by ingest status.",
	}, []string{"status"})

	AdminOverviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huntress_admin_overview_total",
		Help: "Total number of admin overview computations, labelled by outcome.",
	}, []string{"outcome"})

	DemoIntakes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huntress_demo_intakes_total",
		Help: "Total number of demo requests submitted, labelled by outcome.",
	}, []string{"outcome"})

	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huntress_outbox_published_total",
		Help: "Total number of outbox records processed, labelled by outcome.",
	}, []string{"outcome"})

	CRMDeadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huntress_crm_dead_letters_total",
		Help: "Total number of CRM status updates parked in the dead letter state, labelled by reason.",
	}, []string{"reason"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "huntress_http_request_duration_seconds",
		Help:    "HTTP request latency by method, matched route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
