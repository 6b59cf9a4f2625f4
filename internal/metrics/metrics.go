package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

const namespace = "solar_pr"

// Sources of reading writes.
const (
	SourceAPI    = "api"
	SourceBulk   = "bulk"
	SourceImport = "import"
	SourceMQTT   = "mqtt"
)

// Metrics groups the counters the services update. A nil *Metrics is a no-op.
type Metrics struct {
	readingsWritten   *prometheus.CounterVec
	alertsRaised      *prometheus.CounterVec
	triggerFailures   prometheus.Counter
	dashboardRequests *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readingsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_written_total",
			Help:      "Daily readings written, by source.",
		}, []string{"source"}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Underperformance alerts raised, by severity.",
		}, []string{"severity"}),
		triggerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_trigger_failures_total",
			Help:      "Alert trigger runs that failed and were swallowed.",
		}),
		dashboardRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_requests_total",
			Help:      "Dashboard views served, by granularity and cache outcome.",
		}, []string{"granularity", "cache"}),
	}
	if reg != nil {
		reg.MustRegister(m.readingsWritten, m.alertsRaised, m.triggerFailures, m.dashboardRequests)
	}
	return m
}

func (m *Metrics) ReadingsWritten(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.readingsWritten.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) AlertRaised(sev domain.Severity) {
	if m == nil {
		return
	}
	m.alertsRaised.WithLabelValues(string(sev)).Inc()
}

func (m *Metrics) TriggerFailed() {
	if m == nil {
		return
	}
	m.triggerFailures.Inc()
}

func (m *Metrics) DashboardServed(granularity string, cached bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if cached {
		outcome = "hit"
	}
	m.dashboardRequests.WithLabelValues(granularity, outcome).Inc()
}
