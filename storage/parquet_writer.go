package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"svk-scraper/models"
)

// parquetReading is the column layout of the Parquet mirror.
type parquetReading struct {
	Hour       string   `parquet:"name=timme, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ForecastMW *float64 `parquet:"name=prognos_mw, type=DOUBLE, repetitiontype=OPTIONAL"`
	ActualMW   *float64 `parquet:"name=forbrukning_mw, type=DOUBLE, repetitiontype=OPTIONAL"`
	Date       string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	DateTime   int64    `parquet:"name=datetime, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// ParquetWriter mirrors the master table to a single SNAPPY-compressed
// Parquet file for columnar tooling.
type ParquetWriter struct {
	path string
}

func NewParquetWriter(path string) *ParquetWriter {
	return &ParquetWriter{path: path}
}

func (w *ParquetWriter) Name() string { return "parquet" }

func (w *ParquetWriter) Write(_ context.Context, readings []*models.Reading) error {
	return WriteFileAtomic(w.path, func(out io.Writer) error {
		return EncodeParquet(out, readings)
	})
}

// EncodeParquet writes readings as one row group.
func EncodeParquet(out io.Writer, readings []*models.Reading) (err error) {
	pw, err := writer.NewParquetWriterFromWriter(out, new(parquetReading), 1)
	if err != nil {
		return fmt.Errorf("parquet: create writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range readings {
		row := parquetReading{
			Hour:       r.Hour,
			ForecastMW: optionalFloat(r.Forecast),
			ActualMW:   optionalFloat(r.Actual),
			Date:       r.Date.Format(models.DateLayout),
			DateTime:   r.DateTime.UnixMilli(),
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("parquet: write row %s: %w", r.DateTime.Format(models.DateTimeLayout), err)
		}
	}

	// WriteStop can panic inside the library on malformed schemas.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parquet: write stop panicked: %v", rec)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet: write stop: %w", err)
	}
	return nil
}

func optionalFloat(v decimal.NullDecimal) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Decimal.InexactFloat64()
	return &f
}
