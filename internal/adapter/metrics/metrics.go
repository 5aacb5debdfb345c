package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GatewayMetrics holds all Prometheus metrics for the submission gateway.
type GatewayMetrics struct {
	SubmissionsTotal   *prometheus.CounterVec
	RateLimitDecisions *prometheus.CounterVec
	StoreAppendErrors  prometheus.Counter
}

// NewGatewayMetrics initializes and registers the Prometheus metrics.
func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "form_gateway",
			Subsystem: "submit",
			Name:      "submissions_total",
			Help:      "Total number of submission attempts by outcome.",
		}, []string{"status"}), // status: accepted, rejected_auth, rejected_empty, rejected_validation, rejected_rate, error_store
		RateLimitDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "form_gateway",
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Total number of rate limiter decisions by kind.",
		}, []string{"decision"}), // decision: allowed, rejected, fail_open
		StoreAppendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "form_gateway",
			Subsystem: "store",
			Name:      "append_errors_total",
			Help:      "Total number of failed submission store appends.",
		}),
	}
}
