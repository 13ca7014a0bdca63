package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"svk-scraper/models"
	"svk-scraper/utils"
)

// SummaryService computes and renders the plain-text overview of the master table.
type SummaryService struct {
	logger *utils.Logger
	area   string
}

func NewSummaryService(logger *utils.Logger, area string) *SummaryService {
	return &SummaryService{logger: logger, area: area}
}

func (s *SummaryService) Generate(readings []*models.Reading, run *models.RunStats, now time.Time) *models.SummaryReport {
	report := &models.SummaryReport{
		GeneratedAt: now.UTC(),
		NonNull:     make(map[string]int, len(models.MasterColumns)),
		Forecast:    models.ColumnStats{Name: models.ColForecast},
		Actual:      models.ColumnStats{Name: models.ColActual},
		Run:         run,
	}
	if len(readings) == 0 {
		return report
	}

	report.TotalRecords = len(readings)
	dates := make(map[time.Time]struct{})
	report.FirstDate = readings[0].Date
	report.LastDate = readings[0].Date

	var forecast, actual []decimal.Decimal
	for _, r := range readings {
		dates[r.Date] = struct{}{}
		if r.Date.Before(report.FirstDate) {
			report.FirstDate = r.Date
		}
		if r.Date.After(report.LastDate) {
			report.LastDate = r.Date
		}
		if r.DateTime.After(report.LatestDataPoint) {
			report.LatestDataPoint = r.DateTime
		}

		if r.Hour != "" {
			report.NonNull[models.ColHour]++
		}
		if r.Forecast.Valid {
			forecast = append(forecast, r.Forecast.Decimal)
		}
		if r.Actual.Valid {
			actual = append(actual, r.Actual.Decimal)
		}
	}

	report.UniqueDates = len(dates)
	report.NonNull[models.ColForecast] = len(forecast)
	report.NonNull[models.ColActual] = len(actual)
	report.NonNull[models.ColDate] = len(readings)
	report.NonNull[models.ColDateTime] = len(readings)

	fillStats(&report.Forecast, forecast)
	fillStats(&report.Actual, actual)
	return report
}

func fillStats(stats *models.ColumnStats, values []decimal.Decimal) {
	stats.NonNull = len(values)
	if len(values) == 0 {
		return
	}
	stats.Min = decimal.Min(values[0], values[1:]...)
	stats.Max = decimal.Max(values[0], values[1:]...)
	stats.Mean = decimal.Sum(values[0], values[1:]...).
		Div(decimal.NewFromInt(int64(len(values)))).
		Round(2)
}

// Render writes the report in the layout operators read in data_summary.txt.
func (s *SummaryService) Render(w io.Writer, r *models.SummaryReport) error {
	var b strings.Builder
	sep := strings.Repeat("=", 50)

	b.WriteString("SVK Power Data Summary\n")
	b.WriteString(sep + "\n\n")
	fmt.Fprintf(&b, "Last updated: %s UTC\n", r.GeneratedAt.Format(models.DateTimeLayout))
	if s.area != "" {
		fmt.Fprintf(&b, "Electricity area: %s\n", s.area)
	}
	fmt.Fprintf(&b, "Total records: %d\n", r.TotalRecords)
	fmt.Fprintf(&b, "Unique dates: %d\n", r.UniqueDates)
	if r.TotalRecords > 0 {
		fmt.Fprintf(&b, "Date range: %s to %s\n",
			r.FirstDate.Format(models.DateLayout), r.LastDate.Format(models.DateLayout))
		fmt.Fprintf(&b, "Latest data point: %s\n", r.LatestDataPoint.Format(models.DateTimeLayout))
	}

	b.WriteString("\nColumns in dataset:\n")
	for _, col := range models.MasterColumns {
		fmt.Fprintf(&b, "  - %s: %d/%d non-null values\n", col, r.NonNull[col], r.TotalRecords)
	}

	b.WriteString("\nNumeric column statistics:\n")
	for _, st := range []models.ColumnStats{r.Forecast, r.Actual} {
		fmt.Fprintf(&b, "\n%s:\n", st.Name)
		if st.NonNull == 0 {
			b.WriteString("  No data\n")
			continue
		}
		fmt.Fprintf(&b, "  Mean: %s\n", st.Mean.StringFixed(2))
		fmt.Fprintf(&b, "  Min: %s\n", st.Min.StringFixed(2))
		fmt.Fprintf(&b, "  Max: %s\n", st.Max.StringFixed(2))
	}

	if run := r.Run; run != nil {
		b.WriteString("\nLast run:\n")
		fmt.Fprintf(&b, "  Run ID: %s\n", run.RunID)
		fmt.Fprintf(&b, "  Started: %s UTC\n", run.StartedAt.UTC().Format(models.DateTimeLayout))
		fmt.Fprintf(&b, "  Fetched rows: %d\n", run.Fetched)
		fmt.Fprintf(&b, "  Dropped rows (bad hour/date): %d\n", run.Dropped)
		fmt.Fprintf(&b, "  Unparseable values (stored as no data): %d\n", run.Coerced)
		fmt.Fprintf(&b, "  Added: %d | Updated: %d | Unchanged: %d\n", run.Added, run.Updated, run.Unchanged)
		if run.RawFile != "" {
			fmt.Fprintf(&b, "  Raw snapshot: %s\n", run.RawFile)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
