// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

// Package metrics records per-run counters for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the run metrics. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	EpicTickets     prometheus.Gauge
	AlertTickets    prometheus.Gauge
	FiringAlerts    prometheus.Gauge
	ActionsTotal    *prometheus.CounterVec
	RunDuration     prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
	LastRunUnixTime prometheus.Gauge
}

// New registers and returns run metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		EpicTickets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alert_sync_epic_tickets",
			Help: "Tickets returned by the epic query.",
		}),
		AlertTickets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alert_sync_alert_tickets",
			Help: "Epic tickets matching the auto-generated alert convention.",
		}),
		FiringAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alert_sync_firing_alerts",
			Help: "Firing alerts read from the alerts file.",
		}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_sync_actions_total",
			Help: "Ticket actions by action and outcome (ok, dry_run, error).",
		}, []string{"action", "outcome"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alert_sync_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alert_sync_last_run_success",
			Help: "1 if the last run finished without error.",
		}),
		LastRunUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alert_sync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	reg.MustRegister(
		m.EpicTickets,
		m.AlertTickets,
		m.FiringAlerts,
		m.ActionsTotal,
		m.RunDuration,
		m.LastRunSuccess,
		m.LastRunUnixTime,
	)
	return m
}

// ObserveAction counts one ticket action.
func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

// SetEpicCounts records the epic query size and the filtered alert ticket count.
func (m *Metrics) SetEpicCounts(total, alerts int) {
	if m == nil {
		return
	}
	m.EpicTickets.Set(float64(total))
	m.AlertTickets.Set(float64(alerts))
}

// SetFiringAlerts records the number of firing alerts.
func (m *Metrics) SetFiringAlerts(n int) {
	if m == nil {
		return
	}
	m.FiringAlerts.Set(float64(n))
}

// Finish records the run outcome.
func (m *Metrics) Finish(start time.Time, err error) {
	if m == nil {
		return
	}
	now := time.Now()
	m.RunDuration.Set(now.Sub(start).Seconds())
	m.LastRunUnixTime.Set(float64(now.Unix()))
	if err != nil {
		m.LastRunSuccess.Set(0)
	} else {
		m.LastRunSuccess.Set(1)
	}
}

// WriteTextfile writes the metrics in text exposition format, atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
