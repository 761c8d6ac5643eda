package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ApplicationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholar_applications_created_total",
			Help: "Applications created, labelled by mode (new or resubmitted).",
		},
		[]string{"mode"},
	)

	ApplicationsRejectedDuplicate = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scholar_applications_duplicate_total",
			Help: "Creation attempts blocked by the one-application-per-user rule.",
		},
	)

	ReapplyToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholar_reapply_toggles_total",
			Help: "Re-apply toggles, labelled by the resulting value.",
		},
		[]string{"can_reapply"},
	)

	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scholar_messages_sent_total",
			Help: "Messages persisted by the conversation service.",
		},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scholar_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Register adds every collector to reg. Registering twice returns the
// AlreadyRegistered error from prometheus.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		ApplicationsCreated,
		ApplicationsRejectedDuplicate,
		ReapplyToggles,
		MessagesSent,
		HTTPRequestDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
