package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Layouts used for the master table's Date and DateTime columns.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// FetchRequest tells the fetcher how many consecutive dates to read, going
// backwards from StartDate. A zero StartDate means the date the page opens on.
type FetchRequest struct {
	Days      int
	StartDate time.Time
}

// RawReading holds one table row exactly as it was read from the page.
// Raw snapshots are written from these before any cleaning.
type RawReading struct {
	Hour      string
	Forecast  string
	Actual    string
	Date      string
	Area      string
	FetchedAt time.Time
}

// Reading is one cleaned hour of forecast and actual consumption for one
// calendar date. DateTime is the unique key of the master table.
type Reading struct {
	Hour     string
	Forecast decimal.NullDecimal
	Actual   decimal.NullDecimal
	Date     time.Time
	DateTime time.Time
}

// SameValues reports whether two readings carry identical published values.
func (r *Reading) SameValues(o *Reading) bool {
	return r.Hour == o.Hour &&
		nullEqual(r.Forecast, o.Forecast) &&
		nullEqual(r.Actual, o.Actual)
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// MergeResult is the master table after applying one batch, with counters.
type MergeResult struct {
	Readings  []*Reading
	Added     int
	Updated   int
	Unchanged int
}

// CleanResult is the outcome of converting a batch of raw rows.
type CleanResult struct {
	Readings []*Reading
	Dropped  int
	Coerced  int
}

// RunStats describes what a single pipeline run did.
type RunStats struct {
	RunID     string
	StartedAt time.Time
	Fetched   int
	Dropped   int
	Coerced   int
	Added     int
	Updated   int
	Unchanged int
	RawFile   string
}

// ColumnStats holds simple aggregates over the non-null values of a column.
type ColumnStats struct {
	Name    string
	NonNull int
	Mean    decimal.Decimal
	Min     decimal.Decimal
	Max     decimal.Decimal
}

// SummaryReport is the computed overview of the master table.
type SummaryReport struct {
	GeneratedAt     time.Time
	TotalRecords    int
	UniqueDates     int
	FirstDate       time.Time
	LastDate        time.Time
	LatestDataPoint time.Time
	NonNull         map[string]int
	Forecast        ColumnStats
	Actual          ColumnStats
	Run             *RunStats
}
