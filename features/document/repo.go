package document

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (title, origin, source_type, status, content_hash) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowContext(ctx, query, doc.Title, doc.Origin, doc.SourceType, doc.Status, doc.ContentHash).Scan(&doc.ID)
}

// UpsertByOrigin refreshes the row for a crawled URL in place, so a
// re-crawl updates content provenance instead of accumulating rows.
func (r *PostgresRepo) UpsertByOrigin(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (title, origin, source_type, status, content_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (origin) DO UPDATE
		SET title = EXCLUDED.title, status = EXCLUDED.status, content_hash = EXCLUDED.content_hash, updated_at = NOW()
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query, doc.Title, doc.Origin, doc.SourceType, doc.Status, doc.ContentHash).Scan(&doc.ID)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	var errMsg sql.NullString
	query := `SELECT id, title, origin, source_type, status, chunk_count, error_message, created_at, updated_at FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.Title, &doc.Origin, &doc.SourceType, &doc.Status,
		&doc.ChunkCount, &errMsg, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ErrorMessage = errMsg.String
	return doc, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Document, error) {
	query := `SELECT id, title, origin, source_type, status, chunk_count, error_message, created_at, updated_at FROM documents ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var errMsg sql.NullString
		if err := rows.Scan(
			&doc.ID, &doc.Title, &doc.Origin, &doc.SourceType, &doc.Status,
			&doc.ChunkCount, &errMsg, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		doc.ErrorMessage = errMsg.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *PostgresRepo) MarkReady(ctx context.Context, id string, chunkCount int) error {
	query := `UPDATE documents SET status = 'ready', chunk_count = $1, error_message = NULL, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, chunkCount, id)
	return err
}

func (r *PostgresRepo) MarkError(ctx context.Context, id, message string) error {
	query := `UPDATE documents SET status = 'error', error_message = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, message, id)
	return err
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ExistsByHash ignores failed rows so the same file can be uploaded
// again after an ingestion error.
func (r *PostgresRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM documents WHERE content_hash = $1 AND status <> 'error')`
	err := r.db.QueryRowContext(ctx, query, hash).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdatedWithin reports whether the origin was refreshed inside the
// given window; the crawl recency guard.
func (r *PostgresRepo) UpdatedWithin(ctx context.Context, origin string, hours int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM documents WHERE origin = $1 AND updated_at > NOW() - ($2 * INTERVAL '1 hour'))`
	err := r.db.QueryRowContext(ctx, query, origin, hours).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
