package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements consensus.Metrics against a prometheus
// registry. It is defined structurally, not against an imported interface
// type, so internal/consensus stays free of a prometheus import.
type PrometheusMetrics struct {
	mu sync.Mutex

	epoch       prometheus.Gauge
	role        *prometheus.GaugeVec
	proposals   prometheus.Counter
	attestation prometheus.Counter

	currentRole string
}

// NewPrometheusMetrics registers the engine's gauges and counters with reg
// under the subnetnode namespace and returns the collector.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		epoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "subnetnode",
			Subsystem: "consensus",
			Name:      "epoch",
			Help:      "Current epoch observed by the consensus engine.",
		}),
		role: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "subnetnode",
			Subsystem: "consensus",
			Name:      "role",
			Help:      "1 for the role this node currently holds this epoch, 0 otherwise.",
		}, []string{"role"}),
		proposals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subnetnode",
			Subsystem: "consensus",
			Name:      "proposals_total",
			Help:      "Total accepted propose_attestation calls made by this node.",
		}),
		attestation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subnetnode",
			Subsystem: "consensus",
			Name:      "attestations_total",
			Help:      "Total accepted attest calls made by this node.",
		}),
	}

	collectors := []prometheus.Collector{m.epoch, m.role, m.proposals, m.attestation}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SetEpoch implements consensus.Metrics.
func (m *PrometheusMetrics) SetEpoch(epoch uint64) {
	m.epoch.Set(float64(epoch))
}

// SetRole implements consensus.Metrics. Only the active role's gauge is 1;
// the previous role, if different, is reset to 0.
func (m *PrometheusMetrics) SetRole(role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentRole != "" && m.currentRole != role {
		m.role.WithLabelValues(m.currentRole).Set(0)
	}
	m.role.WithLabelValues(role).Set(1)
	m.currentRole = role
}

// IncProposals implements consensus.Metrics.
func (m *PrometheusMetrics) IncProposals() {
	m.proposals.Inc()
}

// IncAttestations implements consensus.Metrics.
func (m *PrometheusMetrics) IncAttestations() {
	m.attestation.Inc()
}
