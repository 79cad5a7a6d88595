package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(redemptions, grants, payments, revenue) }

var (
	// result: ok or the error kind that rejected the attempt
	redemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promo_redemptions_total",
		Help:      "Promotion code redemption attempts by result.",
	}, []string{"result"})

	// kind: team|organization, source: promo|payment
	grants = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grants_total",
		Help:      "Entitlement grants committed, by target kind and source.",
	}, []string{"kind", "source"})

	// outcome: applied|already_processed|failure_recorded|failure_ignored|error
	payments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "reconciled_total",
		Help:      "Payment confirmations by reconciliation outcome.",
	}, []string{"outcome"})

	revenue = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "revenue_minor_units_total",
		Help:      "Captured amount of applied payments in minor units, by currency.",
	}, []string{"currency"})
)

func IncRedemption(result string) {
	redemptions.WithLabelValues(norm(result)).Inc()
}

func IncGrant(kind, source string) {
	grants.WithLabelValues(norm(kind), norm(source)).Inc()
}

func IncPayment(outcome string) {
	payments.WithLabelValues(norm(outcome)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	if amount <= 0 {
		return
	}
	revenue.WithLabelValues(norm(currency)).Add(float64(amount))
}
