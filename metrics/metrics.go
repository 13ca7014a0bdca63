package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"svk-scraper/models"
)

// Metrics bundles pipeline run metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RowsFetched     prometheus.Counter
	RowsDropped     prometheus.Counter
	ValuesCoerced   prometheus.Counter
	RowsMerged      *prometheus.CounterVec
	MasterRows      prometheus.Gauge
	LastSuccessUnix prometheus.Gauge
}

// New constructs and registers metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svk_scraper_runs_total",
				Help: "Total pipeline runs by result",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "svk_scraper_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "svk_scraper_rows_fetched_total",
			Help: "Raw table rows read from the page",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "svk_scraper_rows_dropped_total",
			Help: "Rows dropped for an unreadable hour or date",
		}),
		ValuesCoerced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "svk_scraper_values_coerced_total",
			Help: "Numeric cells stored as no data because they did not parse",
		}),
		RowsMerged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svk_scraper_rows_merged_total",
				Help: "Merged rows by outcome",
			},
			[]string{"outcome"},
		),
		MasterRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "svk_scraper_master_rows",
			Help: "Rows in the master table after the last successful run",
		}),
		LastSuccessUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "svk_scraper_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
	m.Registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RowsFetched,
		m.RowsDropped,
		m.ValuesCoerced,
		m.RowsMerged,
		m.MasterRows,
		m.LastSuccessUnix,
	)
	return m
}

// ObserveRun records one finished run. result is "success" or the name of
// the failing stage.
func (m *Metrics) ObserveRun(result string, run *models.RunStats, masterRows int, finished time.Time) {
	m.RunsTotal.WithLabelValues(result).Inc()
	if run == nil {
		return
	}
	if !run.StartedAt.IsZero() {
		m.RunDuration.Observe(finished.Sub(run.StartedAt).Seconds())
	}
	m.RowsFetched.Add(float64(run.Fetched))
	m.RowsDropped.Add(float64(run.Dropped))
	m.ValuesCoerced.Add(float64(run.Coerced))
	m.RowsMerged.WithLabelValues("added").Add(float64(run.Added))
	m.RowsMerged.WithLabelValues("updated").Add(float64(run.Updated))
	m.RowsMerged.WithLabelValues("unchanged").Add(float64(run.Unchanged))

	if result == "success" {
		m.MasterRows.Set(float64(masterRows))
		m.LastSuccessUnix.Set(float64(finished.Unix()))
	}
}

// WriteTextfile writes the registry in exposition format for a node-exporter
// textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("metrics: create dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
