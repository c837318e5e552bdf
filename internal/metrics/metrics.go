// Package metrics records per-run pipeline metrics and writes them in the
// Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors of one run on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	sourceRuns     *prometheus.CounterVec
	sourceItems    *prometheus.GaugeVec
	sourceDuration *prometheus.GaugeVec
	saves          *prometheus.CounterVec
	lastRun        prometheus.Gauge
}

// New creates and registers the run collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		sourceRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefing_source_runs_total",
			Help: "Source category runs by outcome.",
		}, []string{"category", "outcome"}),
		sourceItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "briefing_source_items",
			Help: "Items produced by a source category in the last run.",
		}, []string{"category"}),
		sourceDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "briefing_source_duration_seconds",
			Help: "Wall time of a source category in the last run.",
		}, []string{"category"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefing_readwise_saves_total",
			Help: "Read-later saves by outcome.",
		}, []string{"outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "briefing_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	m.reg.MustRegister(m.sourceRuns, m.sourceItems, m.sourceDuration, m.saves, m.lastRun)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveSource records the outcome of one source category.
func (m *Metrics) ObserveSource(category string, items int, d time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.sourceRuns.WithLabelValues(category, outcome).Inc()
	m.sourceItems.WithLabelValues(category).Set(float64(items))
	m.sourceDuration.WithLabelValues(category).Set(d.Seconds())
}

// ObserveSaves records read-later save results.
func (m *Metrics) ObserveSaves(ok, failed int) {
	m.saves.WithLabelValues(OutcomeOK).Add(float64(ok))
	m.saves.WithLabelValues(OutcomeError).Add(float64(failed))
}

// MarkRun stamps the run completion time.
func (m *Metrics) MarkRun(now time.Time) {
	m.lastRun.Set(float64(now.Unix()))
}

// WriteTextfile writes all metrics to path atomically. An empty path is a
// no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
