package svk

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"svk-scraper/models"
)

var pickerDateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// pageTable is the shape returned by readTableScript.
type pageTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// normaliseHeader collapses runs of whitespace (including no-break spaces)
// so "Prognos (MW)" matches "Prognos (MW)".
func normaliseHeader(h string) string {
	return strings.Join(strings.Fields(h), " ")
}

// mapTable turns one day's table into raw readings. Cell text is kept as
// shown; only fully blank rows are skipped.
func mapTable(t pageTable, date, area string, fetchedAt time.Time) ([]*models.RawReading, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("no headers found in table")
	}

	idx := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		idx[normaliseHeader(h)] = i
	}
	cols := make([]int, 0, 3)
	for _, want := range []string{models.ColHour, models.ColForecast, models.ColActual} {
		i, ok := idx[want]
		if !ok {
			return nil, fmt.Errorf("table is missing column %q (have %q)", want, t.Headers)
		}
		cols = append(cols, i)
	}

	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]*models.RawReading, 0, len(t.Rows))
	for _, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		out = append(out, &models.RawReading{
			Hour:      cell(row, cols[0]),
			Forecast:  cell(row, cols[1]),
			Actual:    cell(row, cols[2]),
			Date:      date,
			Area:      area,
			FetchedAt: fetchedAt,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no data rows found in table")
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// validPickerDate reports whether v looks like the picker's YYYY-MM-DD value.
func validPickerDate(v string) bool {
	return pickerDateRegexp.MatchString(strings.TrimSpace(v))
}
