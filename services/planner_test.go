package services

import (
	"testing"
	"time"

	"svk-scraper/models"
)

func TestPlanDays(t *testing.T) {
	now := time.Date(2024, 3, 20, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		existing  []*models.Reading
		requested int
		want      int
	}{
		{"empty table backfills a week", nil, 3, 7},
		{"empty table keeps larger request", nil, 10, 10},
		{"fresh table uses request", []*models.Reading{reading("2024-03-19", 0, 1, 1)}, 3, 3},
		{"exactly a week old uses request", []*models.Reading{reading("2024-03-13", 0, 1, 1)}, 3, 3},
		{"stale table closes the gap", []*models.Reading{
			reading("2024-03-01", 0, 1, 1),
			reading("2024-03-10", 0, 1, 1),
		}, 3, 12},
		{"very stale table is capped", []*models.Reading{reading("2023-12-01", 0, 1, 1)}, 3, 30},
		{"large request on empty table is kept", nil, 60, 60},
		{"large request on stale table is kept", []*models.Reading{reading("2023-12-01", 0, 1, 1)}, 60, 60},
		{"large request on fresh table is kept", []*models.Reading{reading("2024-03-19", 0, 1, 1)}, 60, 60},
	}

	for _, tt := range tests {
		got := PlanDays(tt.existing, tt.requested, 30, now)
		if got != tt.want {
			t.Errorf("%s: PlanDays = %d; want %d", tt.name, got, tt.want)
		}
	}
}
