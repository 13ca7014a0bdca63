package svk

import (
	"strings"
	"testing"
	"time"
)

var fetched = time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC)

func TestMapTableKeepsCellText(t *testing.T) {
	table := pageTable{
		Headers: []string{"Timme", "Prognos (MW)", "Förbrukning (MW)"},
		Rows: [][]string{
			{"00-01", "12 345", "12 001,5"},
			{"", " ", ""},
			{"01-02", "12 100", "-"},
		},
	}

	rows, err := mapTable(table, "2024-01-15", "SE3", fetched)
	if err != nil {
		t.Fatalf("mapTable: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (blank skipped), got %d", len(rows))
	}
	r := rows[0]
	if r.Hour != "00-01" || r.Forecast != "12 345" || r.Actual != "12 001,5" {
		t.Errorf("unexpected first row: %+v", r)
	}
	if r.Date != "2024-01-15" || r.Area != "SE3" || !r.FetchedAt.Equal(fetched) {
		t.Errorf("metadata not attached: %+v", r)
	}
	if rows[1].Actual != "-" {
		t.Errorf("'-' must be kept verbatim, got %q", rows[1].Actual)
	}
}

func TestMapTableColumnOrderFromHeaders(t *testing.T) {
	table := pageTable{
		Headers: []string{"Förbrukning (MW)", "Timme", "Prognos (MW)"},
		Rows:    [][]string{{"900", "05-06", "1000"}},
	}
	rows, err := mapTable(table, "2024-01-15", "SE3", fetched)
	if err != nil {
		t.Fatalf("mapTable: %v", err)
	}
	if rows[0].Hour != "05-06" || rows[0].Forecast != "1000" || rows[0].Actual != "900" {
		t.Errorf("columns mapped by position instead of header: %+v", rows[0])
	}
}

func TestMapTableShortRow(t *testing.T) {
	table := pageTable{
		Headers: []string{"Timme", "Prognos (MW)", "Förbrukning (MW)"},
		Rows:    [][]string{{"23-24", "1500"}},
	}
	rows, err := mapTable(table, "2024-01-15", "SE3", fetched)
	if err != nil {
		t.Fatalf("mapTable: %v", err)
	}
	if rows[0].Actual != "" {
		t.Errorf("missing cell should be empty, got %q", rows[0].Actual)
	}
}

func TestMapTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		table   pageTable
		wantErr string
	}{
		{"no headers", pageTable{Rows: [][]string{{"00-01"}}}, "no headers"},
		{"missing column", pageTable{Headers: []string{"Timme", "Prognos (MW)"}}, "Förbrukning"},
		{"no rows", pageTable{
			Headers: []string{"Timme", "Prognos (MW)", "Förbrukning (MW)"},
			Rows:    [][]string{{"", "", ""}},
		}, "no data rows"},
	}

	for _, tt := range tests {
		_, err := mapTable(tt.table, "2024-01-15", "SE3", fetched)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidPickerDate(t *testing.T) {
	for v, want := range map[string]bool{
		"2024-01-15":   true,
		" 2024-01-15 ": true,
		"15-01-2024":   false,
		"":             false,
		"idag":         false,
	} {
		if got := validPickerDate(v); got != want {
			t.Errorf("validPickerDate(%q) = %v; want %v", v, got, want)
		}
	}
}
