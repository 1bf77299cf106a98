package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"planscape/models"
)

const benefitColumns = 6

// PostgresWriter mirrors benefit records into PostgreSQL, one row per plan
// key. The JSON artifacts remain the source of truth.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, waits for the server to answer, runs
// the schema migration and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS plan_benefits (
			cms_plan_key   TEXT        PRIMARY KEY,
			year           INTEGER     NOT NULL,
			source_pdf_url TEXT        NOT NULL,
			document       JSONB       NOT NULL,
			extracted_at   TIMESTAMPTZ NOT NULL,
			run_id         UUID        NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_plan_benefits_year ON plan_benefits(year);
		CREATE INDEX IF NOT EXISTS idx_plan_benefits_run  ON plan_benefits(run_id);
	`)
	return err
}

// Write upserts records in batches keyed by plan key.
func (pw *PostgresWriter) Write(year int, runID string, records []*models.BenefitRecord) error {
	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args, err := buildBenefitUpsert(year, runID, records[i:end])
		if err != nil {
			return err
		}
		if _, err := pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch at %d: %w", i, err)
		}
	}
	return nil
}

func buildBenefitUpsert(year int, runID string, batch []*models.BenefitRecord) (string, []any, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*benefitColumns)

	for idx, r := range batch {
		doc, err := Marshal(r)
		if err != nil {
			return "", nil, fmt.Errorf("postgres: encode %s: %w", r.CMSPlanKey, err)
		}
		base := idx * benefitColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		valueArgs = append(valueArgs,
			r.CMSPlanKey, year, r.SourcePDFURL, string(doc), r.ExtractedAt, runID)
	}

	query := fmt.Sprintf(`
		INSERT INTO plan_benefits (cms_plan_key, year, source_pdf_url, document, extracted_at, run_id)
		VALUES %s
		ON CONFLICT (cms_plan_key) DO UPDATE SET
			year = EXCLUDED.year,
			source_pdf_url = EXCLUDED.source_pdf_url,
			document = EXCLUDED.document,
			extracted_at = EXCLUDED.extracted_at,
			run_id = EXCLUDED.run_id
	`, strings.Join(valueStrings, ","))
	return query, valueArgs, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
