package services

import (
	"time"

	"svk-scraper/models"
)

const (
	// initialBackfillDays is the minimum scrape window when the master table is empty.
	initialBackfillDays = 7
	// staleAfterDays widens the window once the newest stored date is older than this.
	staleAfterDays = 7
)

// PlanDays decides how many days to scrape when no explicit start date is
// given. An empty table gets a week of history; a stale table gets enough
// days to close the gap. Only the computed window is capped at maxDays; a
// larger explicit request is kept as given.
func PlanDays(existing []*models.Reading, requested, maxDays int, now time.Time) int {
	if len(existing) == 0 {
		return max(requested, capDays(initialBackfillDays, maxDays))
	}

	latest := existing[0].Date
	for _, r := range existing[1:] {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysSince := int(today.Sub(latest).Hours() / 24)
	if daysSince > staleAfterDays {
		return max(requested, capDays(daysSince+2, maxDays))
	}
	return requested
}

func capDays(days, maxDays int) int {
	if maxDays > 0 && days > maxDays {
		return maxDays
	}
	return days
}
