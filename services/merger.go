package services

import (
	"sort"
	"time"

	"svk-scraper/models"
	"svk-scraper/utils"
)

// Merger folds newly fetched readings into the master table. The combined
// timestamp is the key and the latest fetched row always wins.
type Merger struct {
	logger *utils.Logger
}

// NewMerger creates a Merger with the given logger.
func NewMerger(logger *utils.Logger) *Merger {
	return &Merger{logger: logger}
}

// Merge applies incoming on top of existing and returns the table ordered by
// timestamp. Neither input slice is modified.
func (m *Merger) Merge(existing, incoming []*models.Reading) *models.MergeResult {
	original := make(map[time.Time]*models.Reading, len(existing))
	table := make(map[time.Time]*models.Reading, len(existing)+len(incoming))
	for _, r := range existing {
		original[r.DateTime] = r
		table[r.DateTime] = r
	}

	// A later row for the same hour within one batch replaces an earlier one.
	touched := make([]time.Time, 0, len(incoming))
	seen := make(map[time.Time]struct{}, len(incoming))
	for _, r := range incoming {
		if _, dup := seen[r.DateTime]; !dup {
			seen[r.DateTime] = struct{}{}
			touched = append(touched, r.DateTime)
		}
		table[r.DateTime] = r
	}

	result := &models.MergeResult{}
	for _, key := range touched {
		prev, existed := original[key]
		switch {
		case !existed:
			result.Added++
		case prev.SameValues(table[key]):
			result.Unchanged++
		default:
			result.Updated++
		}
	}

	result.Readings = make([]*models.Reading, 0, len(table))
	for _, r := range table {
		result.Readings = append(result.Readings, r)
	}
	sort.Slice(result.Readings, func(i, j int) bool {
		return result.Readings[i].DateTime.Before(result.Readings[j].DateTime)
	})

	m.logger.Info("[merger] %d existing + %d incoming → %d rows (added %d, updated %d, unchanged %d)",
		len(existing), len(incoming), len(result.Readings), result.Added, result.Updated, result.Unchanged)
	return result
}
