package storage

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"offer-harvester/models"
)

const sheetName = "Offers"

// XLSXEncoder writes the record table as a single-sheet spreadsheet.
type XLSXEncoder struct{}

func (XLSXEncoder) Ext() string { return ".xlsx" }

func (XLSXEncoder) Encode(w io.Writer, records []models.OfferRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	if err := setRow(f, 1, Columns); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, i+2, row(r)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", rowNum, err)
	}
	return nil
}
