package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the marketplace Prometheus collectors. A nil *Metrics is
// valid and records nothing, which keeps tests off the global registry.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationFailures *prometheus.CounterVec
	EventsEmitted     prometheus.Counter
	EscrowHeldCents   prometheus.Gauge
	OpenDisputes      prometheus.Gauge
	AuditMismatches   prometheus.Counter
}

// New creates and registers all marketplace metrics
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rentvault_operations_total",
			Help: "Total marketplace operations by name",
		}, []string{"op"}),
		OperationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rentvault_operation_failures_total",
			Help: "Total failed marketplace operations by name and error code",
		}, []string{"op", "code"}),
		EventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentvault_events_emitted_total",
			Help: "Total events appended to the marketplace log",
		}),
		EscrowHeldCents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rentvault_escrow_held_cents",
			Help: "Cents currently held in escrow across all items",
		}),
		OpenDisputes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rentvault_open_disputes",
			Help: "Rentals currently in dispute",
		}),
		AuditMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentvault_escrow_audit_mismatches_total",
			Help: "Escrow reconciliation mismatches detected",
		}),
	}
}

// RecordOperation counts a completed operation.
func (m *Metrics) RecordOperation(op string) {
	if m != nil {
		m.Operations.WithLabelValues(op).Inc()
	}
}

// RecordFailure counts a rejected operation by error code.
func (m *Metrics) RecordFailure(op, code string) {
	if m != nil {
		m.OperationFailures.WithLabelValues(op, code).Inc()
	}
}

func (m *Metrics) IncrementEventsEmitted() {
	if m != nil {
		m.EventsEmitted.Inc()
	}
}

func (m *Metrics) SetEscrowHeldCents(cents int64) {
	if m != nil {
		m.EscrowHeldCents.Set(float64(cents))
	}
}

func (m *Metrics) SetOpenDisputes(count int) {
	if m != nil {
		m.OpenDisputes.Set(float64(count))
	}
}

func (m *Metrics) IncrementAuditMismatches() {
	if m != nil {
		m.AuditMismatches.Inc()
	}
}
