package fuel

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink forwards FuelAlerts to Prometheus counters/gauges,
// per SPEC_FULL.md section 2's domain-stack wiring for
// github.com/prometheus/client_golang — an optional observability export,
// never on the fuel-accounting hot path itself (Record/evaluate call the
// Sink interface, PrometheusSink is just one implementation a caller may
// choose not to register).
type PrometheusSink struct {
	alertsTotal *prometheus.CounterVec
	lastRate    *prometheus.GaugeVec
	lastPeak    *prometheus.GaugeVec
}

// NewPrometheusSink constructs a sink and registers its metrics against
// reg. Callers typically pass prometheus.DefaultRegisterer or a
// purpose-built registry scoped to one runtime instance.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wrt",
			Subsystem: "fuel",
			Name:      "alerts_total",
			Help:      "Count of fuel monitor alerts raised, by kind.",
		}, []string{"kind"}),
		lastRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wrt",
			Subsystem: "fuel",
			Name:      "consumption_rate",
			Help:      "Most recent rolling-window fuel consumption rate observed per task.",
		}, []string{"task"}),
		lastPeak: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wrt",
			Subsystem: "fuel",
			Name:      "consumption_peak",
			Help:      "Most recent rolling-window peak single-step fuel consumption per task.",
		}, []string{"task"}),
	}
	reg.MustRegister(s.alertsTotal, s.lastRate, s.lastPeak)
	return s
}

func (s *PrometheusSink) Observe(a FuelAlert) {
	s.alertsTotal.WithLabelValues(alertKindName(a.Kind)).Inc()
	s.lastRate.WithLabelValues(a.TaskID.Label).Set(float64(a.Rate))
	s.lastPeak.WithLabelValues(a.TaskID.Label).Set(float64(a.Peak))
}

func alertKindName(k AlertKind) string {
	switch k {
	case AlertHighConsumptionRate:
		return "high_consumption_rate"
	case AlertBudgetNearExhaustion:
		return "budget_near_exhaustion"
	case AlertDebtGrowing:
		return "debt_growing"
	}
	return "unknown"
}
