package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the abuse-protection collectors. Construct once at
// startup; services treat a nil *Metrics as "metrics disabled".
type Metrics struct {
	GateDecisionsTotal    *prometheus.CounterVec
	GateRiskScore         prometheus.Histogram
	SignalTriggeredTotal  *prometheus.CounterVec
	AllowlistBypassTotal  prometheus.Counter
	TrackedClients        prometheus.Gauge
	SweepRunsTotal        *prometheus.CounterVec
	SweepRemovedTotal     prometheus.Counter
	SweepDurationSeconds  prometheus.Histogram
	SubmissionLatencySecs prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		GateDecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_gate_decisions_total",
			Help: "Gate decisions by outcome (admitted, rejected, rate_limited)",
		}, []string{"outcome"}),
		GateRiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "formgate_gate_risk_score",
			Help:    "Composite risk score distribution for scored submissions",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		SignalTriggeredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_signal_triggered_total",
			Help: "Detector signals that triggered, by detector name",
		}, []string{"detector"}),
		AllowlistBypassTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formgate_allowlist_bypass_total",
			Help: "Rate limit checks bypassed via allowlist",
		}),
		TrackedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "formgate_ratelimit_tracked_clients",
			Help: "Client budgets currently held in the registry",
		}),
		SweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_sweep_runs_total",
			Help: "Budget registry sweep runs by status",
		}, []string{"status"}),
		SweepRemovedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formgate_sweep_removed_total",
			Help: "Idle budget entries removed by the sweeper",
		}),
		SweepDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "formgate_sweep_duration_seconds",
			Help: "Duration of budget registry sweep runs in seconds",
		}),
		SubmissionLatencySecs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "formgate_gate_admit_duration_seconds",
			Help:    "Time spent deciding a single submission",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

func (m *Metrics) RecordDecision(outcome string) {
	m.GateDecisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRiskScore(score int) {
	m.GateRiskScore.Observe(float64(score))
}

func (m *Metrics) RecordSignalTriggered(detector string) {
	m.SignalTriggeredTotal.WithLabelValues(detector).Inc()
}

func (m *Metrics) RecordAllowlistBypass() {
	m.AllowlistBypassTotal.Inc()
}

func (m *Metrics) SetTrackedClients(count int) {
	m.TrackedClients.Set(float64(count))
}

func (m *Metrics) RecordSweep(status string, removed int, duration time.Duration) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
	if removed > 0 {
		m.SweepRemovedTotal.Add(float64(removed))
	}
	m.SweepDurationSeconds.Observe(duration.Seconds())
}

func (m *Metrics) ObserveAdmitDuration(d time.Duration) {
	m.SubmissionLatencySecs.Observe(d.Seconds())
}
