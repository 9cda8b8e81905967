package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"venturelens/backend/internal/extract"
	"venturelens/backend/internal/funding"
	"venturelens/backend/internal/retrieval"
	"venturelens/backend/internal/text"
)

type DocumentStore interface {
	UpdateStatus(ctx context.Context, id, status string) error
	MarkReady(ctx context.Context, id string, chunkCount int) error
	MarkError(ctx context.Context, id, message string) error
}

type ChunkWriter interface {
	ReplaceForDocument(ctx context.Context, documentID string, chunks []retrieval.Chunk) error
}

// KeywordTagger enriches chunks for retrieval; an empty result is an
// acceptable outcome, never an error.
type KeywordTagger interface {
	Extract(ctx context.Context, text string) []string
}

type DealWriter interface {
	SaveAll(ctx context.Context, records []funding.Record) error
}

type IngestConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	ChunkMinLength     int
	ParagraphChunkSize int
	KeywordMaxChunks   int
	Conversion         funding.Conversion
}

// Ingestor runs the extract -> chunk -> tag -> persist pipeline for one
// document, uploaded or crawled.
type Ingestor struct {
	docs   DocumentStore
	chunks ChunkWriter
	tagger KeywordTagger
	deals  DealWriter
	cfg    IngestConfig
}

func NewIngestor(docs DocumentStore, chunks ChunkWriter, tagger KeywordTagger, deals DealWriter, cfg IngestConfig) *Ingestor {
	return &Ingestor{docs: docs, chunks: chunks, tagger: tagger, deals: deals, cfg: cfg}
}

// IngestFile processes an uploaded file's bytes. Failures are terminal
// for the document (status error); a fresh upload starts a new
// lifecycle, there is no retry.
func (in *Ingestor) IngestFile(ctx context.Context, documentID, filename string, data []byte) error {
	if err := in.docs.UpdateStatus(ctx, documentID, "processing"); err != nil {
		return err
	}

	content := extract.FromFile(filename, data)
	if len(strings.TrimSpace(content)) < extract.MinTextLength {
		slog.WarnContext(ctx, "extraction yielded insufficient text", "document_id", documentID, "filename", filename, "length", len(content))
		return in.docs.MarkError(ctx, documentID, "no meaningful text could be extracted")
	}

	segments := text.ChunkWindow(content, in.cfg.ChunkSize, in.cfg.ChunkOverlap, in.cfg.ChunkMinLength)
	_, err := in.persist(ctx, documentID, filename, "", extract.SourceType(filename), content, segments)
	return err
}

// IngestPage processes crawled page content, chunked on paragraph
// boundaries. Returns the number of chunks and deal records written.
func (in *Ingestor) IngestPage(ctx context.Context, documentID, title, url, content string) (int, int, error) {
	if err := in.docs.UpdateStatus(ctx, documentID, "processing"); err != nil {
		return 0, 0, err
	}

	segments := text.ChunkParagraphs(content, in.cfg.ParagraphChunkSize, in.cfg.ChunkMinLength)
	deals, err := in.persist(ctx, documentID, title, url, "web", content, segments)
	if err != nil {
		return 0, 0, err
	}
	return len(segments), deals, nil
}

func (in *Ingestor) persist(ctx context.Context, documentID, title, url, sourceType, content string, segments []string) (int, error) {
	chunks := make([]retrieval.Chunk, len(segments))
	for i, seg := range segments {
		chunk := retrieval.Chunk{
			DocumentID: documentID,
			Index:      i,
			Content:    seg,
			Title:      title,
			URL:        url,
			SourceType: sourceType,
		}
		// Tagging is capped to the leading chunks to bound API cost;
		// later chunks stay untagged and still rank lexically.
		if in.tagger != nil && i < in.cfg.KeywordMaxChunks {
			chunk.Keywords = in.tagger.Extract(ctx, seg)
		}
		chunks[i] = chunk
	}

	if err := in.chunks.ReplaceForDocument(ctx, documentID, chunks); err != nil {
		markErr := in.docs.MarkError(ctx, documentID, fmt.Sprintf("failed to store chunks: %v", err))
		if markErr != nil {
			slog.ErrorContext(ctx, "failed to mark document error", "error", markErr, "document_id", documentID)
		}
		return 0, err
	}

	records := funding.Extract(content, documentID, in.cfg.Conversion)
	if len(records) > 0 {
		if err := in.deals.SaveAll(ctx, records); err != nil {
			// Deal rows are derived data; losing them degrades the
			// dashboard but not retrieval.
			slog.WarnContext(ctx, "failed to save deal records", "error", err, "document_id", documentID, "count", len(records))
		} else {
			slog.InfoContext(ctx, "extracted deal records", "document_id", documentID, "count", len(records))
		}
	}

	return len(records), in.docs.MarkReady(ctx, documentID, len(chunks))
}
