package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"svk-scraper/models"
	"svk-scraper/utils"
)

var (
	// hourRegexp captures the start and end hour of labels like "00-01",
	// "7 - 8" or "23:00–24:00".
	hourRegexp = regexp.MustCompile(`^\s*(\d{1,2})(?::\d{2})?\s*[-–—]\s*(\d{1,2})(?::\d{2})?\s*$`)

	// numberStripper removes characters the site uses as digit grouping.
	numberStripper = strings.NewReplacer(
		" ", "",
		"\u00a0", "",
		"\u202f", "",
		".", "",
	)
)

// Cleaner transforms RawReadings into typed, validated Readings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean converts raw rows. Rows whose hour or date cannot be parsed are
// dropped and counted; numeric cells that cannot be parsed become "no data"
// and are counted as coerced.
func (c *Cleaner) Clean(raw []*models.RawReading) *models.CleanResult {
	result := &models.CleanResult{Readings: make([]*models.Reading, 0, len(raw))}

	for _, r := range raw {
		reading, coerced, err := c.convert(r)
		if err != nil {
			c.logger.Warn("[cleaner] Dropping row date=%q hour=%q: %v", r.Date, r.Hour, err)
			result.Dropped++
			continue
		}
		result.Coerced += coerced
		result.Readings = append(result.Readings, reading)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d readings (dropped %d, coerced %d values)",
		len(raw), len(result.Readings), result.Dropped, result.Coerced)
	return result
}

func (c *Cleaner) convert(r *models.RawReading) (*models.Reading, int, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return nil, 0, err
	}
	start, label, err := ParseHourLabel(r.Hour)
	if err != nil {
		return nil, 0, err
	}

	coerced := 0
	forecast, ok := ParseSwedishNumber(r.Forecast)
	if !ok {
		c.logger.Debug("[cleaner] Unparseable forecast %q for %s %s", r.Forecast, r.Date, label)
		coerced++
	}
	actual, ok := ParseSwedishNumber(r.Actual)
	if !ok {
		c.logger.Debug("[cleaner] Unparseable consumption %q for %s %s", r.Actual, r.Date, label)
		coerced++
	}

	return &models.Reading{
		Hour:     label,
		Forecast: forecast,
		Actual:   actual,
		Date:     date,
		DateTime: date.Add(time.Duration(start) * time.Hour),
	}, coerced, nil
}

// ParseDate parses a YYYY-MM-DD calendar date into midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	d, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return d, nil
}

// ParseHourLabel returns the start hour and the normalised "HH-HH" label.
func ParseHourLabel(raw string) (int, string, error) {
	m := hourRegexp.FindStringSubmatch(raw)
	if m == nil {
		return 0, "", fmt.Errorf("invalid hour label %q", raw)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start < 0 || start > 23 || end < 0 || end > 24 {
		return 0, "", fmt.Errorf("hour out of range in %q", raw)
	}
	return start, fmt.Sprintf("%02d-%02d", start, end), nil
}

// ParseSwedishNumber parses a cell such as "12 345,6" or "1.234". Empty cells
// and "-" mean "no data" and report ok; anything else that fails to parse is
// "no data" with ok=false.
func ParseSwedishNumber(raw string) (decimal.NullDecimal, bool) {
	s := numberStripper.Replace(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.Replace(s, "−", "-", 1)

	if s == "" || s == "-" || s == "–" {
		return decimal.NullDecimal{}, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}
