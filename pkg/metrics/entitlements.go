package metrics

import "github.com/prometheus/client_golang/prometheus"

// EntitlementMetrics tracks gate decisions so operators can see how often
// quota limits block tenant actions.
type EntitlementMetrics struct {
	decisions     *prometheus.CounterVec
	expiredTrials prometheus.Gauge
}

// NewEntitlementMetrics registers entitlement metrics on the provided registerer.
func NewEntitlementMetrics(reg prometheus.Registerer) *EntitlementMetrics {
	if reg == nil {
		return &EntitlementMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_gate_decisions",
		Help: "Entitlement gate outcomes per action.",
	}, []string{"action", "allowed"})
	expiredTrials := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "expired_trials_without_subscription",
		Help: "Accounts whose trial lapsed with no paid subscription.",
	})
	reg.MustRegister(decisions, expiredTrials)
	return &EntitlementMetrics{
		decisions:     decisions,
		expiredTrials: expiredTrials,
	}
}

// ObserveDecision records a single gate outcome.
func (e *EntitlementMetrics) ObserveDecision(action string, allowed bool) {
	if e == nil || e.decisions == nil {
		return
	}
	outcome := "false"
	if allowed {
		outcome = "true"
	}
	e.decisions.WithLabelValues(normalizeLabel(action), outcome).Inc()
}

// SetExpiredTrials publishes the latest expired-trial census.
func (e *EntitlementMetrics) SetExpiredTrials(count int) {
	if e == nil || e.expiredTrials == nil {
		return
	}
	e.expiredTrials.Set(float64(count))
}
