package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"svk-scraper/models"
)

func sampleReadings() []*models.Reading {
	rows := []*models.Reading{
		reading("2024-01-14", 0, 1000, 950),
		reading("2024-01-14", 1, 1100, 1050),
		reading("2024-01-15", 0, 1200, 0),
	}
	rows[2].Actual = decimal.NullDecimal{}
	return rows
}

func TestSummaryCounts(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "SE3")
	r := svc.Generate(sampleReadings(), nil, time.Now())

	if r.TotalRecords != 3 {
		t.Errorf("TotalRecords: got %d, want 3", r.TotalRecords)
	}
	if r.UniqueDates != 2 {
		t.Errorf("UniqueDates: got %d, want 2", r.UniqueDates)
	}
	if r.NonNull[models.ColActual] != 2 {
		t.Errorf("non-null consumption: got %d, want 2", r.NonNull[models.ColActual])
	}
	if got := r.LatestDataPoint.Format(models.DateTimeLayout); got != "2024-01-15 00:00:00" {
		t.Errorf("LatestDataPoint: got %s", got)
	}
}

func TestSummaryStats(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "SE3")
	r := svc.Generate(sampleReadings(), nil, time.Now())

	if !r.Forecast.Mean.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("forecast mean: got %s, want 1100", r.Forecast.Mean)
	}
	if !r.Actual.Mean.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("consumption mean: got %s, want 1000", r.Actual.Mean)
	}
	if !r.Forecast.Min.Equal(decimal.NewFromInt(1000)) || !r.Forecast.Max.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("forecast min/max: got %s/%s", r.Forecast.Min, r.Forecast.Max)
	}
}

func TestSummaryRender(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "SE3")
	run := &models.RunStats{RunID: "abc", Fetched: 24, Dropped: 1, Added: 20, Updated: 3, RawFile: "svk_power_data_20240115_060000.csv"}
	r := svc.Generate(sampleReadings(), run, time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC))

	var b strings.Builder
	if err := svc.Render(&b, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"Last updated: 2024-01-15 06:00:00 UTC",
		"Total records: 3",
		"Date range: 2024-01-14 to 2024-01-15",
		"  - Förbrukning (MW): 2/3 non-null values",
		"  Mean: 1100.00",
		"  Dropped rows (bad hour/date): 1",
		"  Raw snapshot: svk_power_data_20240115_060000.csv",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered summary missing %q\n%s", want, out)
		}
	}
}

func TestSummaryEmptyInput(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "SE3")
	r := svc.Generate(nil, nil, time.Now())
	if r.TotalRecords != 0 {
		t.Errorf("expected 0 total records for empty input")
	}

	var b strings.Builder
	if err := svc.Render(&b, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(b.String(), "Date range") {
		t.Error("empty summary should not print a date range")
	}
}
