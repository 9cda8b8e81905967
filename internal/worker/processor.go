package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"venturelens/backend/internal/middleware"
)

type ProcessPayload struct {
	DocumentID    string `json:"document_id"`
	Path          string `json:"path"`
	Filename      string `json:"filename"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Processor consumes document.process messages and runs the ingestion
// pipeline for uploaded files.
type Processor struct {
	ingestor *Ingestor
	docs     DocumentStore
}

func NewProcessor(ingestor *Ingestor, docs DocumentStore) *Processor {
	return &Processor{ingestor: ingestor, docs: docs}
}

func (p *Processor) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ProcessPayload
	err := json.Unmarshal(m.Body, &payload)

	correlationID := payload.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	ctx := context.Background()
	ctx = middleware.WithCorrelationID(ctx, correlationID)

	if err != nil {
		slog.ErrorContext(ctx, "invalid message format", "error", err)
		return nil // Don't retry invalid messages
	}

	if payload.DocumentID == "" || payload.Path == "" {
		slog.ErrorContext(ctx, "missing required fields, dropping", "document_id", payload.DocumentID, "path", payload.Path)
		return nil
	}

	slog.InfoContext(ctx, "processing document", "document_id", payload.DocumentID, "filename", payload.Filename)

	data, err := os.ReadFile(filepath.Clean(payload.Path)) // #nosec G304 -- path originates from our own upload handler
	if err != nil {
		slog.ErrorContext(ctx, "failed to read uploaded file", "error", err, "document_id", payload.DocumentID)
		if markErr := p.docs.MarkError(ctx, payload.DocumentID, "uploaded file could not be read"); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark document error", "error", markErr, "document_id", payload.DocumentID)
		}
		return nil
	}

	if err := p.ingestor.IngestFile(ctx, payload.DocumentID, payload.Filename, data); err != nil {
		// Terminal for this document; the row already carries the
		// error status, so the message is not requeued.
		slog.ErrorContext(ctx, "document ingestion failed", "error", err, "document_id", payload.DocumentID)
		return nil
	}

	slog.InfoContext(ctx, "document processed", "document_id", payload.DocumentID)
	return nil
}
