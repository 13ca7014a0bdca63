package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svk-scraper/models"
)

func TestObserveRunSuccess(t *testing.T) {
	m := New()
	started := time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC)
	run := &models.RunStats{StartedAt: started, Fetched: 72, Dropped: 1, Coerced: 2, Added: 24, Updated: 3, Unchanged: 44}

	m.ObserveRun("success", run, 120, started.Add(40*time.Second))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 72.0, testutil.ToFloat64(m.RowsFetched))
	assert.Equal(t, 24.0, testutil.ToFloat64(m.RowsMerged.WithLabelValues("added")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsMerged.WithLabelValues("updated")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.MasterRows))
	assert.Equal(t, float64(started.Add(40*time.Second).Unix()), testutil.ToFloat64(m.LastSuccessUnix))
}

func TestObserveRunFailureKeepsGauges(t *testing.T) {
	m := New()
	m.ObserveRun("fetch", nil, 0, time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("fetch")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LastSuccessUnix))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun("success", &models.RunStats{Fetched: 24}, 24, time.Now())

	path := filepath.Join(t.TempDir(), "textfile", "svk_scraper.prom")
	require.NoError(t, m.WriteTextfile(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `svk_scraper_runs_total{result="success"} 1`)
	assert.Contains(t, string(body), "svk_scraper_master_rows 24")

	assert.NoError(t, m.WriteTextfile(""))
}
