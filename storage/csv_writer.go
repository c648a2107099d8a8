package storage

import (
	"encoding/csv"
	"fmt"
	"io"

	"offer-harvester/models"
)

// CSVEncoder writes the record table as comma-separated text.
type CSVEncoder struct{}

func (CSVEncoder) Ext() string { return ".csv" }

// Encode writes the header row followed by one row per record.
func (CSVEncoder) Encode(w io.Writer, records []models.OfferRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
