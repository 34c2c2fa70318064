package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HealthChecksTotal tracks aggregated health checks by result (ok, error)
	HealthChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_health_checks_total",
			Help: "Total number of aggregated health checks",
		},
		[]string{"result"},
	)

	// ProbeErrorsTotal tracks probes that could not produce a result
	ProbeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_probe_errors_total",
			Help: "Total number of probe failures",
		},
		[]string{"probe"},
	)

	// ProbeLatency tracks probe duration
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodewatch_probe_latency_seconds",
			Help:    "Probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"probe"},
	)

	// ChainHeight tracks the tip height reported per chain and side (local, remote)
	ChainHeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_chain_height",
			Help: "Latest block height seen by the chain probes",
		},
		[]string{"chain", "side"},
	)

	// RestartAttemptsTotal tracks restart attempts by outcome (succeeded, failed)
	RestartAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_restart_attempts_total",
			Help: "Total number of automatic restart attempts",
		},
		[]string{"outcome"},
	)

	// NotificationsTotal tracks notifications by template and result (sent, failed)
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_notifications_total",
			Help: "Total number of notifications",
		},
		[]string{"template", "result"},
	)

	// EngineMode is 1 for the current mode, 0 otherwise
	EngineMode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_engine_mode",
			Help: "Current engine mode",
		},
		[]string{"mode"},
	)

	// RebootsDetected counts host reboots seen at startup
	RebootsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nodewatch_reboots_detected_total",
			Help: "Total number of host reboots detected",
		},
	)

	// JournalPoolUsage tracks database connection pool usage percentage
	JournalPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodewatch_journal_pool_usage_percent",
			Help: "Event journal connection pool usage percentage",
		},
	)
)

var modes = []string{"idle", "restart_in_progress", "autorestart_disabled"}

// SetEngineMode flips the mode gauge so exactly one mode reads 1.
func SetEngineMode(mode string) {
	for _, m := range modes {
		v := 0.0
		if m == mode {
			v = 1
		}
		EngineMode.WithLabelValues(m).Set(v)
	}
}
