package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"svk-scraper/models"
)

func testReading(date string, hour int, forecast, actual string) *models.Reading {
	d, err := time.ParseInLocation(models.DateLayout, date, time.UTC)
	if err != nil {
		panic(err)
	}
	r := &models.Reading{
		Hour:     fmt.Sprintf("%02d-%02d", hour, hour+1),
		Date:     d,
		DateTime: d.Add(time.Duration(hour) * time.Hour),
	}
	if forecast != "" {
		r.Forecast = decimal.NewNullDecimal(decimal.RequireFromString(forecast))
	}
	if actual != "" {
		r.Actual = decimal.NewNullDecimal(decimal.RequireFromString(actual))
	}
	return r
}

func testDay(date string) []*models.Reading {
	out := make([]*models.Reading, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, testReading(date, h, fmt.Sprintf("%d", 1000+h), fmt.Sprintf("%d.5", 900+h)))
	}
	return out
}
