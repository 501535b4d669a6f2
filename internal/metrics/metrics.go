// Package metrics records per-run inventory metrics in a private Prometheus
// registry. Runs are batch jobs, so the registry is exported to a textfile
// (for node_exporter's textfile collector) rather than scraped.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the run metrics.
type Recorder struct {
	registry *prometheus.Registry

	units           *prometheus.CounterVec
	unitDuration    *prometheus.HistogramVec
	rows            *prometheus.CounterVec
	accountsSkipped prometheus.Counter
	orgCache        *prometheus.GaugeVec
	archiveBytes    prometheus.Gauge
	runs            *prometheus.CounterVec
	runDuration     prometheus.Gauge
	lastRun         prometheus.Gauge
}

// New returns a Recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		units: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orginv_collection_units_total",
				Help: "Collection units (account, kind, region) by outcome",
			},
			[]string{"kind", "status"}, // success or error
		),
		unitDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orginv_collection_unit_duration_seconds",
				Help:    "Time taken by one collection unit, retries included",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		rows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orginv_rows_collected_total",
				Help: "Inventory rows collected",
			},
			[]string{"kind"},
		),
		accountsSkipped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "orginv_accounts_skipped_total",
				Help: "Accounts skipped because role assumption failed",
			},
		),
		orgCache: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orginv_org_cache_lookups",
				Help: "Organization tree cache lookups in the process lifetime",
			},
			[]string{"result"}, // hit or miss
		),
		archiveBytes: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "orginv_archive_size_bytes",
				Help: "Size of the last packaged archive",
			},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orginv_runs_total",
				Help: "Inventory runs by outcome",
			},
			[]string{"status"}, // success, no_data or error
		),
		runDuration: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "orginv_run_duration_seconds",
				Help: "Duration of the last run",
			},
		),
		lastRun: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "orginv_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveUnit records one finished collection unit.
func (r *Recorder) ObserveUnit(kind string, err error, rows int, d time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.units.WithLabelValues(kind, status).Inc()
	r.unitDuration.WithLabelValues(kind).Observe(d.Seconds())
	r.rows.WithLabelValues(kind).Add(float64(rows))
}

// AccountSkipped records a credential failure.
func (r *Recorder) AccountSkipped() {
	if r == nil {
		return
	}
	r.accountsSkipped.Inc()
}

// SetOrgCache publishes the resolver cache hit and miss totals.
func (r *Recorder) SetOrgCache(hits, misses int) {
	if r == nil {
		return
	}
	r.orgCache.WithLabelValues("hit").Set(float64(hits))
	r.orgCache.WithLabelValues("miss").Set(float64(misses))
}

// ObserveArchive records the packaged archive size.
func (r *Recorder) ObserveArchive(bytes int64) {
	if r == nil {
		return
	}
	r.archiveBytes.Set(float64(bytes))
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(status string, d time.Duration, finished time.Time) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
	r.runDuration.Set(d.Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteToTextfile writes every metric to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
