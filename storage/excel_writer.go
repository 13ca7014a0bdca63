package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"svk-scraper/models"
)

// ExcelSheet is the worksheet holding the mirrored master table.
const ExcelSheet = "master"

// ExcelWriter mirrors the master table to an .xlsx workbook.
type ExcelWriter struct {
	path string
}

func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

func (w *ExcelWriter) Name() string { return "xlsx" }

// Write renders the whole table into a fresh workbook and atomically replaces
// the file. MW cells are numeric; no data is an empty cell.
func (w *ExcelWriter) Write(_ context.Context, readings []*models.Reading) error {
	f, err := BuildMasterWorkbook(readings)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteFileAtomic(w.path, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	})
}

// BuildMasterWorkbook lays out readings on the master sheet.
func BuildMasterWorkbook(readings []*models.Reading) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ExcelSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	header := make([]interface{}, len(models.MasterColumns))
	for i, col := range models.MasterColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(ExcelSheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: write header: %w", err)
	}

	for i, r := range readings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("xlsx: cell name: %w", err)
		}
		row := []interface{}{
			r.Hour,
			cellNumber(r.Forecast),
			cellNumber(r.Actual),
			r.Date.Format(models.DateLayout),
			r.DateTime.Format(models.DateTimeLayout),
		}
		if err := f.SetSheetRow(ExcelSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("xlsx: write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(ExcelSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: freeze header: %w", err)
	}
	return f, nil
}

func cellNumber(v decimal.NullDecimal) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Decimal.InexactFloat64()
}
