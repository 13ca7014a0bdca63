package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"svk-scraper/models"
)

const upsertBatchSize = 50

// PostgresWriter mirrors the master table into PostgreSQL and keeps an audit
// row per pipeline run.
type PostgresWriter struct {
	db   *sql.DB
	area string
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn, area string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw, err := NewPostgresWriterFromDB(ctx, db, area)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return pw, nil
}

// NewPostgresWriterFromDB wraps an existing handle and ensures the schema exists.
func NewPostgresWriterFromDB(ctx context.Context, db *sql.DB, area string) (*PostgresWriter, error) {
	pw := &PostgresWriter{db: db, area: area}
	if err := pw.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS power_readings (
			area           VARCHAR(8)     NOT NULL,
			datetime       TIMESTAMP      NOT NULL,
			hour_label     VARCHAR(8)     NOT NULL,
			reading_date   DATE           NOT NULL,
			forecast_mw    NUMERIC,
			consumption_mw NUMERIC,
			updated_at     TIMESTAMPTZ    NOT NULL DEFAULT NOW(),
			PRIMARY KEY (area, datetime)
		);

		CREATE INDEX IF NOT EXISTS idx_power_readings_date ON power_readings(reading_date);

		CREATE TABLE IF NOT EXISTS scrape_runs (
			run_id     UUID        PRIMARY KEY,
			area       VARCHAR(8)  NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			fetched    INTEGER     NOT NULL,
			dropped    INTEGER     NOT NULL,
			added      INTEGER     NOT NULL,
			updated    INTEGER     NOT NULL,
			unchanged  INTEGER     NOT NULL,
			raw_file   TEXT        NOT NULL DEFAULT ''
		);
	`)
	return err
}

func (pw *PostgresWriter) Name() string { return "postgres" }

// Write upserts every reading inside one transaction; the newest values win
// on (area, datetime) conflicts, mirroring the CSV merge rule.
func (pw *PostgresWriter) Write(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < len(readings); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(readings) {
			end = len(readings)
		}
		if err := pw.upsertBatch(ctx, tx, readings[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(ctx context.Context, tx *sql.Tx, batch []*models.Reading) error {
	const cols = 6
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		valueArgs = append(valueArgs,
			pw.area, r.DateTime, r.Hour, r.Date, r.Forecast, r.Actual)
	}

	query := fmt.Sprintf(`
		INSERT INTO power_readings (area, datetime, hour_label, reading_date, forecast_mw, consumption_mw)
		VALUES %s
		ON CONFLICT (area, datetime) DO UPDATE SET
			hour_label     = EXCLUDED.hour_label,
			reading_date   = EXCLUDED.reading_date,
			forecast_mw    = EXCLUDED.forecast_mw,
			consumption_mw = EXCLUDED.consumption_mw,
			updated_at     = NOW()
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert batch: %w", err)
	}
	return nil
}

// RecordRun stores the run's counters in scrape_runs.
func (pw *PostgresWriter) RecordRun(ctx context.Context, run *models.RunStats) error {
	_, err := pw.db.ExecContext(ctx, `
		INSERT INTO scrape_runs (run_id, area, started_at, fetched, dropped, added, updated, unchanged, raw_file)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, run.RunID, pw.area, run.StartedAt, run.Fetched, run.Dropped, run.Added, run.Updated, run.Unchanged, run.RawFile)
	if err != nil {
		return fmt.Errorf("postgres: record run: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
