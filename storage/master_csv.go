package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"svk-scraper/models"
)

// dateTimeLayouts are accepted when reading the DateTime column back; the
// first one is what the store writes.
var dateTimeLayouts = []string{
	models.DateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15",
}

// MasterStore reads and atomically rewrites the master CSV.
type MasterStore struct {
	path string
}

func NewMasterStore(path string) *MasterStore {
	return &MasterStore{path: path}
}

func (s *MasterStore) Name() string { return "master-csv" }

func (s *MasterStore) Path() string { return s.path }

// Load returns the stored readings in file order. A missing file is an empty
// table. Any row that cannot be parsed is an error: silently skipping it
// would delete it on the next rewrite.
func (s *MasterStore) Load() ([]*models.Reading, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("master: open %q: %w", s.path, err)
	}
	defer f.Close()

	return ReadMasterCSV(f)
}

// ReadMasterCSV parses master-table CSV content.
func ReadMasterCSV(r io.Reader) ([]*models.Reading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("master: read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, required := range []string{models.ColHour, models.ColDate} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("master: missing column %q", required)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var readings []*models.Reading
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("master: line %d: %w", line, err)
		}

		r, err := parseMasterRow(
			field(rec, models.ColHour),
			field(rec, models.ColForecast),
			field(rec, models.ColActual),
			field(rec, models.ColDate),
			field(rec, models.ColDateTime),
		)
		if err != nil {
			return nil, fmt.Errorf("master: line %d: %w", line, err)
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func parseMasterRow(hour, forecast, actual, date, dateTime string) (*models.Reading, error) {
	d, err := time.ParseInLocation(models.DateLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	var key time.Time
	if dateTime != "" {
		key, err = parseDateTime(dateTime)
		if err != nil {
			return nil, err
		}
	} else {
		start, _, ok := strings.Cut(hour, "-")
		h, perr := strconv.Atoi(strings.TrimSpace(start))
		if !ok || perr != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("invalid hour %q", hour)
		}
		key = d.Add(time.Duration(h) * time.Hour)
	}

	f, err := parseStoredNumber(forecast)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", models.ColForecast, forecast)
	}
	a, err := parseStoredNumber(actual)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", models.ColActual, actual)
	}

	return &models.Reading{Hour: hour, Forecast: f, Actual: a, Date: d, DateTime: key}, nil
}

func parseDateTime(v string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", v)
}

func parseStoredNumber(v string) (decimal.NullDecimal, error) {
	switch strings.ToLower(v) {
	case "", "nan", "null":
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func formatNumber(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

// Write atomically replaces the master CSV with readings.
func (s *MasterStore) Write(_ context.Context, readings []*models.Reading) error {
	return WriteFileAtomic(s.path, func(out io.Writer) error {
		return WriteMasterCSV(out, readings)
	})
}

// WriteMasterCSV encodes readings with the master-table header.
func WriteMasterCSV(out io.Writer, readings []*models.Reading) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(models.MasterColumns); err != nil {
		return fmt.Errorf("master: write header: %w", err)
	}
	for _, r := range readings {
		row := []string{
			r.Hour,
			formatNumber(r.Forecast),
			formatNumber(r.Actual),
			r.Date.Format(models.DateLayout),
			r.DateTime.Format(models.DateTimeLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("master: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
