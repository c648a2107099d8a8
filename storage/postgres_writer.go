package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"offer-harvester/models"
)

const (
	pgColumns   = 14
	pgBatchSize = 50
)

// PostgresWriter copies harvested offers into PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
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
			db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw, err := NewPostgresWriterFromDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return pw, nil
}

// NewPostgresWriterFromDB wraps an open database and migrates it.
func NewPostgresWriterFromDB(ctx context.Context, db *sql.DB) (*PostgresWriter, error) {
	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS offers (
			id                SERIAL PRIMARY KEY,
			run_id            UUID         NOT NULL,
			source            VARCHAR(32)  NOT NULL,
			title             TEXT         NOT NULL,
			popularity_metric TEXT         NOT NULL DEFAULT '',
			popularity_value  NUMERIC(12,2),
			commission        TEXT         NOT NULL DEFAULT '',
			price             TEXT         NOT NULL DEFAULT '',
			category          TEXT         NOT NULL DEFAULT '',
			url               TEXT         NOT NULL DEFAULT '',
			rank              INTEGER      NOT NULL DEFAULT 0,
			momentum          TEXT         NOT NULL DEFAULT '',
			change            TEXT         NOT NULL DEFAULT '',
			placeholder       BOOLEAN      NOT NULL DEFAULT FALSE,
			harvested_at      TIMESTAMPTZ  NOT NULL,
			UNIQUE (run_id, source, title)
		);

		CREATE INDEX IF NOT EXISTS idx_offers_source   ON offers(source);
		CREATE INDEX IF NOT EXISTS idx_offers_category ON offers(category);
		CREATE INDEX IF NOT EXISTS idx_offers_run      ON offers(run_id);
	`)
	return err
}

// WriteRun batch-inserts every record of run. Rows already stored for the
// same run are left alone.
func (pw *PostgresWriter) WriteRun(ctx context.Context, run *models.HarvestRun) error {
	records := run.Records()
	for i := 0; i < len(records); i += pgBatchSize {
		end := i + pgBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(ctx, run.ID, records[i:end]); err != nil {
			return &models.PersistenceError{Target: "postgres", Err: err}
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(ctx context.Context, runID string, batch []models.OfferRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*pgColumns)

	for idx, r := range batch {
		base := idx * pgColumns
		placeholders := make([]string, pgColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		popularity := sql.NullFloat64{Float64: r.Popularity, Valid: r.HasPopularity}
		valueArgs = append(valueArgs,
			runID, string(r.Source), r.Title, r.PopularityRaw, popularity, r.Commission,
			r.Price, r.Category, r.URL, r.Rank, r.Momentum, r.Change, r.Placeholder, r.HarvestedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO offers (run_id, source, title, popularity_metric, popularity_value, commission,
			price, category, url, rank, momentum, change, placeholder, harvested_at)
		VALUES %s
		ON CONFLICT (run_id, source, title) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.ExecContext(ctx, query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
