package document

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"venturelens/backend/internal/config"
	"venturelens/backend/internal/middleware"
	"venturelens/backend/internal/retrieval"
)

// Lifecycle states. A document never moves backwards; a failed one is
// re-ingested as a fresh row.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

type Document struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Origin       string `json:"origin"` // stored upload path or crawled URL
	SourceType   string `json:"source_type"`
	Status       string `json:"status"`
	ChunkCount   int    `json:"chunk_count"`
	ContentHash  string `json:"-"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type Repository interface {
	Save(ctx context.Context, doc *Document) error
	UpsertByOrigin(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]Document, error)
	UpdateStatus(ctx context.Context, id, status string) error
	MarkReady(ctx context.Context, id string, chunkCount int) error
	MarkError(ctx context.Context, id, message string) error
	Delete(ctx context.Context, id string) error
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	UpdatedWithin(ctx context.Context, origin string, hours int) (bool, error)
}

type ChunkStore interface {
	ByDocument(ctx context.Context, documentID string, limit, offset int) ([]retrieval.Chunk, error)
	DeleteForDocument(ctx context.Context, documentID string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo   Repository
	chunks ChunkStore
	pub    EventPublisher
}

func NewService(repo Repository, chunks ChunkStore, pub EventPublisher) *Service {
	return &Service{repo: repo, chunks: chunks, pub: pub}
}

// Upload registers a stored file as a pending document and hands it to
// the processing worker.
func (s *Service) Upload(ctx context.Context, path, filename, hash string) (*Document, error) {
	exists, err := s.repo.ExistsByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("duplicate document")
	}

	// Origin must be unique per document; the stored path carries a
	// UUID prefix, while the display filename may repeat across uploads.
	doc := &Document{
		Title:       filename,
		Origin:      path,
		SourceType:  "file",
		Status:      StatusPending,
		ContentHash: hash,
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"document_id":    doc.ID,
		"path":           path,
		"filename":       filename,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicDocumentProcess, payload); err != nil {
		// The row stays pending; a failed publish surfaces to the
		// caller so the upload can be retried.
		slog.ErrorContext(ctx, "failed to publish document.process event", "error", err, "document_id", doc.ID)
		return nil, err
	}
	slog.InfoContext(ctx, "queued document for processing", "document_id", doc.ID, "filename", filename)

	return doc, nil
}

type Detail struct {
	Document
	Chunks      []retrieval.Chunk `json:"chunks"`
	TotalChunks int               `json:"total_chunks"`
}

func (s *Service) Get(ctx context.Context, id string, limit, offset int) (*Detail, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunks.ByDocument(ctx, id, limit, offset)
	if err != nil {
		slog.Warn("failed to fetch chunks", "error", err, "document_id", id)
		chunks = []retrieval.Chunk{}
	}

	return &Detail{
		Document:    *doc,
		Chunks:      chunks,
		TotalChunks: doc.ChunkCount,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.chunks.DeleteForDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
