package document

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"venturelens/backend/internal/retrieval"
)

// ChunkRepo stores chunk rows alongside their parent documents and
// doubles as the retrieval candidate pool.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceForDocument swaps a document's chunk set atomically; a
// re-ingest never leaves stale chunks behind.
func (r *ChunkRepo) ReplaceForDocument(ctx context.Context, documentID string, chunks []retrieval.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	query := `INSERT INTO chunks (document_id, chunk_index, content, keywords, title, url, source_type) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx, query, documentID, c.Index, c.Content, pq.Array(c.Keywords), c.Title, c.URL, c.SourceType); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) ByDocument(ctx context.Context, documentID string, limit, offset int) ([]retrieval.Chunk, error) {
	query := `
		SELECT id, document_id, chunk_index, content, keywords, title, url, source_type
		FROM chunks WHERE document_id = $1
		ORDER BY chunk_index ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, documentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// RecentChunks returns the newest chunks across ready documents, the
// bounded pool the ranker scores.
func (r *ChunkRepo) RecentChunks(ctx context.Context, limit int) ([]retrieval.Chunk, error) {
	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.keywords, c.title, c.url, c.source_type
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.status = 'ready'
		ORDER BY c.created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (r *ChunkRepo) DeleteForDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

func scanChunks(rows *sql.Rows) ([]retrieval.Chunk, error) {
	var chunks []retrieval.Chunk
	for rows.Next() {
		var c retrieval.Chunk
		var title, url, sourceType sql.NullString
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, pq.Array(&c.Keywords), &title, &url, &sourceType); err != nil {
			return nil, err
		}
		c.Title = title.String
		c.URL = url.String
		c.SourceType = sourceType.String
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
