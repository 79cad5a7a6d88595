package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(WebhookRequests, WebhookDuration) }

var (
	// result: ok|fail; reason is bounded:
	// applied|already_processed|failure_recorded|failure_ignored|ignored_type|
	// unsupported_status|bad_signature|bad_payload|reconcile_error
	WebhookRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "requests_total",
		Help:      "Payment webhook deliveries by result and reason.",
	}, []string{"result", "reason"})

	WebhookDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "duration_seconds",
		Help:      "Payment webhook handler latency.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"result"})
)
