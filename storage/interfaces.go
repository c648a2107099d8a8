package storage

import (
	"context"
	"io"

	"offer-harvester/models"
)

// TableEncoder writes the record table in one file format. Formats only
// change the encoding, never the columns.
type TableEncoder interface {
	Ext() string
	Encode(w io.Writer, records []models.OfferRecord) error
}

// RunSink is any secondary store a finished run is copied to.
type RunSink interface {
	WriteRun(ctx context.Context, run *models.HarvestRun) error
	Close() error
}
