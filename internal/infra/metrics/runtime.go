package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(buildInfo, poolConns, cacheLookups) }

var (
	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Always 1, labelled with the running version and commit.",
	}, []string{"version", "commit"})

	// state: total|idle|in_use
	poolConns = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "pool_connections",
		Help:      "Postgres pool connections by state.",
	}, []string{"state"})

	// result: hit|miss|fallback|error
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by cache name and result.",
	}, []string{"cache", "result"})
)

func SetBuildInfo(version, commit string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit).Set(1)
}

func SetDBPoolStats(total, idle, inUse int32) {
	poolConns.WithLabelValues("total").Set(float64(total))
	poolConns.WithLabelValues("idle").Set(float64(idle))
	poolConns.WithLabelValues("in_use").Set(float64(inUse))
}

func IncCacheRequest(cacheName, result string) {
	cacheLookups.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
