package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"svk-scraper/models"
)

const rawFilePrefix = "svk_power_data_"

// RawSnapshotWriter writes each run's unmodified fetch to a new timestamped
// CSV file. Existing snapshots are never overwritten.
type RawSnapshotWriter struct {
	dir string
	now func() time.Time
}

// NewRawSnapshotWriter creates the snapshot directory if needed.
func NewRawSnapshotWriter(dir string) (*RawSnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create raw dir: %w", err)
	}
	return &RawSnapshotWriter{dir: dir, now: time.Now}, nil
}

// WriteRaw writes all raw readings, including an empty batch, to
// svk_power_data_<YYYYmmdd_HHMMSS>.csv and returns the file path.
func (w *RawSnapshotWriter) WriteRaw(raw []*models.RawReading) (string, error) {
	path, err := w.nextPath()
	if err != nil {
		return "", err
	}

	err = WriteFileAtomic(path, func(out io.Writer) error {
		cw := csv.NewWriter(out)
		if err := cw.Write([]string{
			models.ColHour, models.ColForecast, models.ColActual, models.ColDate, "Area", "FetchedAt",
		}); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
		for _, r := range raw {
			row := []string{
				r.Hour,
				r.Forecast,
				r.Actual,
				r.Date,
				r.Area,
				r.FetchedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("csv: write row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (w *RawSnapshotWriter) nextPath() (string, error) {
	stamp := w.now().Format("20060102_150405")
	base := filepath.Join(w.dir, rawFilePrefix+stamp)

	path := base + ".csv"
	for i := 2; ; i++ {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("csv: stat %q: %w", path, err)
		}
		if i > 100 {
			return "", fmt.Errorf("csv: too many snapshots for %s", stamp)
		}
		path = fmt.Sprintf("%s_%d.csv", base, i)
	}
}
