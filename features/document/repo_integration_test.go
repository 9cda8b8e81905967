package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"venturelens/backend/features/document"
	"venturelens/backend/internal/retrieval"
	"venturelens/backend/internal/testutils"
)

func TestDocumentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := document.NewPostgresRepo(s.DB)
	chunkRepo := document.NewChunkRepo(s.DB)
	ctx := context.Background()

	// 1. Save + dedupe check
	doc := &document.Document{
		Title:       "report.pdf",
		Origin:      "report.pdf",
		SourceType:  "pdf",
		Status:      document.StatusPending,
		ContentHash: "hash1",
	}
	require.NoError(t, repo.Save(ctx, doc))
	assert.NotEmpty(t, doc.ID)

	exists, err := repo.ExistsByHash(ctx, "hash1")
	require.NoError(t, err)
	assert.True(t, exists)

	// A failed document does not block re-uploading the same bytes
	failed := &document.Document{
		Title:       "broken.pdf",
		Origin:      "/uploads/xyz_broken.pdf",
		SourceType:  "file",
		Status:      document.StatusPending,
		ContentHash: "hash-err",
	}
	require.NoError(t, repo.Save(ctx, failed))
	require.NoError(t, repo.MarkError(ctx, failed.ID, "no text could be extracted"))

	blocked, err := repo.ExistsByHash(ctx, "hash-err")
	require.NoError(t, err)
	assert.False(t, blocked)

	// 2. Lifecycle: pending -> processing -> ready
	require.NoError(t, repo.UpdateStatus(ctx, doc.ID, document.StatusProcessing))
	require.NoError(t, repo.MarkReady(ctx, doc.ID, 2))

	got, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusReady, got.Status)
	assert.Equal(t, 2, got.ChunkCount)

	// 3. Chunks + retrieval pool
	chunks := []retrieval.Chunk{
		{Index: 0, Content: "FinTech funding in Bangalore grew substantially this quarter.", Keywords: []string{"fintech", "bangalore"}, Title: "report.pdf", SourceType: "pdf"},
		{Index: 1, Content: "Appendix: methodology notes and data sources for the survey.", Title: "report.pdf", SourceType: "pdf"},
	}
	require.NoError(t, chunkRepo.ReplaceForDocument(ctx, doc.ID, chunks))

	pool, err := chunkRepo.RecentChunks(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pool, 2)

	byDoc, err := chunkRepo.ByDocument(ctx, doc.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, byDoc, 2)
	assert.Equal(t, 0, byDoc[0].Index)
	assert.Equal(t, []string{"fintech", "bangalore"}, byDoc[0].Keywords)

	// Replace swaps the set instead of appending
	require.NoError(t, chunkRepo.ReplaceForDocument(ctx, doc.ID, chunks[:1]))
	byDoc, err = chunkRepo.ByDocument(ctx, doc.ID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, byDoc, 1)

	// 4. Crawl upsert by origin refreshes in place
	crawled := &document.Document{
		Title:       "Inc42 Funding Galore",
		Origin:      "https://inc42.com/buzz/funding-galore",
		SourceType:  "web",
		Status:      document.StatusProcessing,
		ContentHash: "hash2",
	}
	require.NoError(t, repo.UpsertByOrigin(ctx, crawled))
	firstID := crawled.ID

	crawled.ContentHash = "hash3"
	require.NoError(t, repo.UpsertByOrigin(ctx, crawled))
	assert.Equal(t, firstID, crawled.ID)

	fresh, err := repo.UpdatedWithin(ctx, crawled.Origin, 12)
	require.NoError(t, err)
	assert.True(t, fresh)

	stale, err := repo.UpdatedWithin(ctx, "https://never-crawled.example", 12)
	require.NoError(t, err)
	assert.False(t, stale)

	// 5. Delete cascades chunks
	require.NoError(t, repo.Delete(ctx, doc.ID))
	_, err = repo.Get(ctx, doc.ID)
	assert.Error(t, err)

	orphans, err := chunkRepo.ByDocument(ctx, doc.ID, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
