package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"svk-scraper/models"
)

func reading(date string, hour int, forecast, actual int64) *models.Reading {
	d, _ := time.ParseInLocation(models.DateLayout, date, time.UTC)
	return &models.Reading{
		Hour:     hourLabel(hour),
		Forecast: decimal.NewNullDecimal(decimal.NewFromInt(forecast)),
		Actual:   decimal.NewNullDecimal(decimal.NewFromInt(actual)),
		Date:     d,
		DateTime: d.Add(time.Duration(hour) * time.Hour),
	}
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d-%02d", h, h+1)
}

func dayOf(date string) []*models.Reading {
	out := make([]*models.Reading, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, reading(date, h, 1000+int64(h), 900+int64(h)))
	}
	return out
}

func assertUniqueSorted(t *testing.T, rows []*models.Reading) {
	t.Helper()
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].DateTime.Before(rows[i].DateTime) {
			t.Fatalf("rows %d and %d are not strictly ordered: %v, %v",
				i-1, i, rows[i-1].DateTime, rows[i].DateTime)
		}
	}
}

func TestMergeNewestValueWins(t *testing.T) {
	m := NewMerger(newTestLogger())
	existing := []*models.Reading{reading("2024-01-15", 0, 1000, 950)}
	incoming := []*models.Reading{reading("2024-01-15", 0, 1020, 960)}

	res := m.Merge(existing, incoming)

	if len(res.Readings) != 1 {
		t.Fatalf("row count: got %d, want 1", len(res.Readings))
	}
	got := res.Readings[0]
	if !got.Forecast.Decimal.Equal(decimal.NewFromInt(1020)) || !got.Actual.Decimal.Equal(decimal.NewFromInt(960)) {
		t.Errorf("values: got %s/%s, want 1020/960", got.Forecast.Decimal, got.Actual.Decimal)
	}
	if res.Updated != 1 || res.Added != 0 {
		t.Errorf("counters: added %d updated %d, want 0/1", res.Added, res.Updated)
	}
}

func TestMergeIdempotent(t *testing.T) {
	m := NewMerger(newTestLogger())
	batch := dayOf("2024-01-15")

	first := m.Merge(nil, batch)
	second := m.Merge(first.Readings, batch)

	if len(second.Readings) != len(first.Readings) {
		t.Fatalf("row count changed: %d → %d", len(first.Readings), len(second.Readings))
	}
	if second.Added != 0 || second.Updated != 0 {
		t.Errorf("re-merge should not add or update, got added %d updated %d", second.Added, second.Updated)
	}
	if second.Unchanged != 24 {
		t.Errorf("Unchanged: got %d, want 24", second.Unchanged)
	}
	for i := range first.Readings {
		if !first.Readings[i].SameValues(second.Readings[i]) {
			t.Errorf("row %d differs after re-merge", i)
		}
	}
}

func TestMergeThreeDaysOverlappingRerun(t *testing.T) {
	m := NewMerger(newTestLogger())
	var batch []*models.Reading
	for _, d := range []string{"2024-01-13", "2024-01-14", "2024-01-15"} {
		batch = append(batch, dayOf(d)...)
	}

	first := m.Merge(nil, batch)
	if len(first.Readings) != 72 || first.Added != 72 {
		t.Fatalf("first run: rows %d added %d, want 72/72", len(first.Readings), first.Added)
	}
	assertUniqueSorted(t, first.Readings)

	rerun := m.Merge(first.Readings, batch)
	if len(rerun.Readings) != 72 {
		t.Errorf("rerun should not grow the table, got %d rows", len(rerun.Readings))
	}
}

func TestMergeDuplicateWithinBatch(t *testing.T) {
	m := NewMerger(newTestLogger())
	incoming := []*models.Reading{
		reading("2024-01-15", 3, 1, 1),
		reading("2024-01-15", 3, 2, 2),
	}

	res := m.Merge(nil, incoming)
	if len(res.Readings) != 1 {
		t.Fatalf("row count: got %d, want 1", len(res.Readings))
	}
	if !res.Readings[0].Forecast.Decimal.Equal(decimal.NewFromInt(2)) {
		t.Errorf("later row in batch should win, got %s", res.Readings[0].Forecast.Decimal)
	}
	if res.Added != 1 {
		t.Errorf("Added: got %d, want 1", res.Added)
	}
}

func TestMergeOrdersByTimestamp(t *testing.T) {
	m := NewMerger(newTestLogger())
	existing := []*models.Reading{reading("2024-01-16", 5, 1, 1), reading("2024-01-14", 1, 1, 1)}
	incoming := []*models.Reading{reading("2024-01-15", 23, 1, 1), reading("2024-01-14", 0, 1, 1)}

	res := m.Merge(existing, incoming)
	assertUniqueSorted(t, res.Readings)
	if len(res.Readings) != 4 {
		t.Errorf("row count: got %d, want 4", len(res.Readings))
	}
}

func TestMergeNullToValueIsUpdate(t *testing.T) {
	m := NewMerger(newTestLogger())
	old := reading("2024-01-15", 10, 1000, 0)
	old.Actual = decimal.NullDecimal{}
	backfilled := reading("2024-01-15", 10, 1000, 980)

	res := m.Merge([]*models.Reading{old}, []*models.Reading{backfilled})
	if res.Updated != 1 {
		t.Errorf("Updated: got %d, want 1", res.Updated)
	}
	if !res.Readings[0].Actual.Valid {
		t.Error("backfilled consumption should replace no data")
	}
}
