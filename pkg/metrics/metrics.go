package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerificationTransitions counts listing verification state transitions by
	// mode (manual|auto) and resulting status.
	VerificationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realestate_verification_transitions_total",
			Help: "Total number of listing verification state transitions",
		},
		[]string{"mode", "status"},
	)

	// SurveyChecks counts external survey validation calls by outcome (pass|fail|unavailable).
	SurveyChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realestate_survey_checks_total",
			Help: "Total number of external survey validation calls",
		},
		[]string{"outcome"},
	)

	// OTPChallenges counts contact-disclosure challenge events
	// (requested|ok|invalid|expired|exhausted|consumed|delivery_failed).
	OTPChallenges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realestate_otp_challenges_total",
			Help: "Total number of contact-disclosure OTP challenge events",
		},
		[]string{"event"},
	)

	// NotificationEvents counts emitted notification records by type.
	NotificationEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realestate_notification_events_total",
			Help: "Total number of emitted notification records",
		},
		[]string{"type"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "realestate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
