package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminRequests, rateLimited, notifications) }

var (
	// status: authorized|unauthorized
	adminRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "admin",
		Name:      "requests_total",
		Help:      "Admin endpoint calls by path and authorization result.",
	}, []string{"endpoint", "status"})

	rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter, by scope.",
	}, []string{"scope"})

	// channel: email|telegram|noop|queue, status: sent|error|skipped|dropped
	notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Outbound notifications by channel, kind and delivery status.",
	}, []string{"channel", "kind", "status"})
)

func IncAdminRequest(endpoint, status string) {
	adminRequests.WithLabelValues(norm(endpoint), norm(status)).Inc()
}

func IncRateLimitTriggered(scope string) {
	rateLimited.WithLabelValues(norm(scope)).Inc()
}

func IncNotification(channel, kind, status string) {
	notifications.WithLabelValues(norm(channel), norm(kind), norm(status)).Inc()
}
