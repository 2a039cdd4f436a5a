package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

// Toggle results recorded by ToggleResult.
const (
	ResultToggled  = "toggled"
	ResultNotFound = "not_found"
)

// Metrics bundles the dashboard collectors.
type Metrics struct {
	IncompleteRecords     prometheus.Gauge
	CompletedRecords      prometheus.Gauge
	OutstandingDifference prometheus.Gauge
	TogglesTotal          *prometheus.CounterVec
	SnapshotsTotal        *prometheus.CounterVec
}

// New constructs the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IncompleteRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "variance_incomplete_records",
			Help: "Records awaiting review or billing action",
		}),
		CompletedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "variance_completed_records",
			Help: "Records resolved and closed",
		}),
		OutstandingDifference: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "variance_outstanding_difference_amount",
			Help: "Sum of total difference over incomplete records",
		}),
		TogglesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "variance_status_toggles_total",
				Help: "Status toggle requests by result",
			},
			[]string{"result"},
		),
		SnapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "variance_snapshots_total",
				Help: "Scheduled statistics snapshots by status",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(
		m.IncompleteRecords,
		m.CompletedRecords,
		m.OutstandingDifference,
		m.TogglesTotal,
		m.SnapshotsTotal,
	)
	return m
}

// ObserveStatistics sets the gauges. It matches dashboard.Listener.
func (m *Metrics) ObserveStatistics(stats models.Statistics) {
	if m == nil {
		return
	}
	m.IncompleteRecords.Set(float64(stats.IncompleteCount))
	m.CompletedRecords.Set(float64(stats.CompletedCount))
	m.OutstandingDifference.Set(stats.TotalDifferenceAmount.InexactFloat64())
}

// ToggleResult counts one toggle request.
func (m *Metrics) ToggleResult(result string) {
	if m == nil {
		return
	}
	m.TogglesTotal.WithLabelValues(result).Inc()
}

// SnapshotResult counts one scheduled snapshot attempt.
func (m *Metrics) SnapshotResult(status string) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.WithLabelValues(status).Inc()
}
