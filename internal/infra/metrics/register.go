package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "entitlements"

// collectors is filled by the init() of each metrics file.
var collectors []prometheus.Collector

func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister adds every collector of this package to reg, or to the
// default registry when reg is nil. It panics on a second call with the same
// registry.
func MustRegister(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(collectors...)
}

// norm keeps label values bounded: lower-case, trimmed, "unknown" when empty.
func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
