package storage

import (
	"context"

	"svk-scraper/models"
)

// ReadingWriter is the interface every mirror of the master table satisfies.
// Write receives the complete, ordered master table.
type ReadingWriter interface {
	Name() string
	Write(ctx context.Context, readings []*models.Reading) error
}

// RawReadingWriter persists one run's fetch exactly as it was read and
// returns the path of the snapshot it created.
type RawReadingWriter interface {
	WriteRaw(raw []*models.RawReading) (string, error)
}
