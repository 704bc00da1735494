package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"courseware-hq/steward/pkg/config"
)

// PolicyMetrics tracks governance policy resolution.
//
// Metrics:
//   - steward_lifecycle_policy_invalid_values_total: configured values replaced by their default
type PolicyMetrics struct {
	invalidValuesTotal *prometheus.CounterVec
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		invalidValuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_invalid_values_total",
				Help:      "Total number of policy values ignored in favour of defaults",
			},
			[]string{"key"},
		),
	}

	registry.MustRegister(pm.invalidValuesTotal)

	return pm
}

// RecordInvalidValue counts one ignored value for key.
func (pm *PolicyMetrics) RecordInvalidValue(key string) {
	pm.invalidValuesTotal.WithLabelValues(key).Inc()
}
