package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/pvasilyev/factfuse/internal/model"
)

// PostgresRepository persists extractions in Postgres, one row per
// (ref, document) pair with the extraction as a JSONB payload.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository opens a connection and verifies it.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	repo := &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRepository) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS borrower_extractions (
			borrower_ref TEXT NOT NULL,
			document_id  TEXT NOT NULL,
			payload      JSONB NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (borrower_ref, document_id)
		)`,
		`CREATE TABLE IF NOT EXISTS application_extractions (
			application_ref TEXT NOT NULL,
			document_id     TEXT NOT NULL,
			payload         JSONB NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (application_ref, document_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) SaveBorrowerExtraction(ctx context.Context, documentID string, extraction model.BorrowerExtraction) error {
	payload, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("encoding borrower extraction: %w", err)
	}

	query, args, err := upsertExtractionSQL(r.builder, "borrower_extractions", "borrower_ref",
		extraction.BorrowerRef, documentID, payload)
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting borrower extraction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveApplicationExtraction(ctx context.Context, documentID string, extraction model.ApplicationExtraction) error {
	payload, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("encoding application extraction: %w", err)
	}

	query, args, err := upsertExtractionSQL(r.builder, "application_extractions", "application_ref",
		extraction.ApplicationRef, documentID, payload)
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting application extraction: %w", err)
	}
	return nil
}

// upsertExtractionSQL builds the shared INSERT ... ON CONFLICT statement for
// either extraction table.
func upsertExtractionSQL(builder sq.StatementBuilderType, table, refColumn, ref, documentID string, payload []byte) (string, []interface{}, error) {
	return builder.
		Insert(table).
		Columns(refColumn, "document_id", "payload").
		Values(ref, documentID, payload).
		Suffix(fmt.Sprintf(`ON CONFLICT (%s, document_id) DO UPDATE
			SET payload = EXCLUDED.payload,
			    updated_at = NOW()`, refColumn)).
		ToSql()
}

func (r *PostgresRepository) ListBorrowerExtractions(ctx context.Context, borrowerRef string) ([]model.BorrowerExtraction, error) {
	query, args, err := r.builder.
		Select("payload").
		From("borrower_extractions").
		Where(sq.Eq{"borrower_ref": borrowerRef}).
		OrderBy("document_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying borrower extractions: %w", err)
	}
	defer rows.Close()

	var out []model.BorrowerExtraction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning payload: %w", err)
		}
		var extraction model.BorrowerExtraction
		if err := json.Unmarshal(payload, &extraction); err != nil {
			return nil, fmt.Errorf("decoding borrower extraction: %w", err)
		}
		out = append(out, extraction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListApplicationExtractions(ctx context.Context, applicationRef string) ([]model.ApplicationExtraction, error) {
	query, args, err := r.builder.
		Select("payload").
		From("application_extractions").
		Where(sq.Eq{"application_ref": applicationRef}).
		OrderBy("document_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying application extractions: %w", err)
	}
	defer rows.Close()

	var out []model.ApplicationExtraction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning payload: %w", err)
		}
		var extraction model.ApplicationExtraction
		if err := json.Unmarshal(payload, &extraction); err != nil {
			return nil, fmt.Errorf("decoding application extraction: %w", err)
		}
		out = append(out, extraction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListBorrowerRefs(ctx context.Context) ([]string, error) {
	return r.listRefs(ctx, "borrower_extractions", "borrower_ref")
}

func (r *PostgresRepository) ListApplicationRefs(ctx context.Context) ([]string, error) {
	return r.listRefs(ctx, "application_extractions", "application_ref")
}

func (r *PostgresRepository) listRefs(ctx context.Context, table, column string) ([]string, error) {
	query, args, err := r.builder.
		Select("DISTINCT " + column).
		From(table).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scanning ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return refs, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
