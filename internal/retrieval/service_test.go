package retrieval_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"venturelens/backend/internal/retrieval"
)

func TestRank_LexicalMatch(t *testing.T) {
	pool := []retrieval.Chunk{
		{ID: "c1", Content: "FinTech startups in Bangalore attracted record investors this year."},
		{ID: "c2", Content: "HealthTech in Mumbai is growing steadily."},
	}

	results := retrieval.Rank("FinTech investors in Bangalore", nil, pool, 5)

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestRank_ExcludesZeroOverlap(t *testing.T) {
	pool := []retrieval.Chunk{
		{ID: "c1", Content: "Quarterly agritech report for the northern region."},
	}

	results := retrieval.Rank("FinTech investors in Bangalore", []string{"fintech", "venture capital"}, pool, 5)
	assert.Empty(t, results)
}

func TestRank_ShortTokensIgnored(t *testing.T) {
	// Every query token is under four characters, so nothing can score
	// lexically.
	pool := []retrieval.Chunk{
		{ID: "c1", Content: "in at on to is the"},
	}
	results := retrieval.Rank("in at on to", nil, pool, 5)
	assert.Empty(t, results)
}

func TestRank_KeywordOverlapOutweighsLexical(t *testing.T) {
	pool := []retrieval.Chunk{
		{ID: "lexical", Content: "funding news from several sectors"},
		{ID: "semantic", Content: "startup deal coverage", Keywords: []string{"fintech funding", "bangalore"}},
	}

	results := retrieval.Rank("funding", []string{"fintech"}, pool, 5)

	require.Len(t, results, 2)
	// "fintech" is contained in the tagged "fintech funding" keyword,
	// which outweighs the single lexical hit.
	assert.Equal(t, "semantic", results[0].ID)
	assert.Equal(t, "lexical", results[1].ID)
}

func TestRank_ExpandedKeywordLiteralHit(t *testing.T) {
	pool := []retrieval.Chunk{
		{ID: "c1", Content: "bangalore startups had a quiet quarter", Keywords: []string{"startups"}},
	}

	with := retrieval.Rank("anything", []string{"bangalore"}, pool, 5)
	without := retrieval.Rank("anything", nil, pool, 5)

	require.Len(t, with, 1)
	assert.Equal(t, 1.0, with[0].Score)
	assert.Empty(t, without)
}

func TestRank_UntaggedChunkIgnoresExpandedKeywords(t *testing.T) {
	// Keyword bonuses only apply to tagged chunks: with zero lexical
	// overlap, an untagged chunk stays excluded even when its content
	// contains an expanded keyword.
	pool := []retrieval.Chunk{
		{ID: "untagged", Content: "bangalore startups had a quiet quarter"},
	}

	results := retrieval.Rank("zzzz qq", []string{"bangalore"}, pool, 5)
	assert.Empty(t, results)
}

func TestRank_KeywordBonusesRequireTags(t *testing.T) {
	tagged := retrieval.Chunk{ID: "tagged", Content: "deal coverage from bangalore", Keywords: []string{"funding"}}
	untagged := retrieval.Chunk{ID: "untagged", Content: "deal coverage from bangalore"}

	taggedResults := retrieval.Rank("deal", []string{"bangalore"}, []retrieval.Chunk{tagged}, 5)
	untaggedResults := retrieval.Rank("deal", []string{"bangalore"}, []retrieval.Chunk{untagged}, 5)

	require.Len(t, taggedResults, 1)
	require.Len(t, untaggedResults, 1)
	// Lexical +1 for "deal" on both; only the tagged chunk earns the
	// +1 content hit for the expanded keyword.
	assert.Equal(t, 2.0, taggedResults[0].Score)
	assert.Equal(t, 1.0, untaggedResults[0].Score)
}

func TestRank_SubstantialChunkBonus(t *testing.T) {
	long := "funding " + strings.Repeat("filler text ", 30)
	require.Greater(t, len(long), 200)

	pool := []retrieval.Chunk{
		{ID: "short", Content: "funding update"},
		{ID: "long", Content: long},
	}

	results := retrieval.Rank("funding", nil, pool, 5)

	require.Len(t, results, 2)
	assert.Equal(t, "long", results[0].ID)
	assert.Equal(t, 1.5, results[0].Score)
	assert.Equal(t, 1.0, results[1].Score)
}

func TestRank_Monotonicity(t *testing.T) {
	base := retrieval.Chunk{ID: "c1", Content: "bangalore startup scene overview"}
	augmented := base
	augmented.Content += " investors"

	baseResults := retrieval.Rank("bangalore investors", nil, []retrieval.Chunk{base}, 5)
	augResults := retrieval.Rank("bangalore investors", nil, []retrieval.Chunk{augmented}, 5)

	require.Len(t, baseResults, 1)
	require.Len(t, augResults, 1)
	assert.GreaterOrEqual(t, augResults[0].Score, baseResults[0].Score)
}

func TestRank_StableOrderOnTies(t *testing.T) {
	pool := []retrieval.Chunk{
		{ID: "first", Content: "funding roundup one"},
		{ID: "second", Content: "funding roundup two"},
		{ID: "third", Content: "funding roundup three"},
	}

	results := retrieval.Rank("funding", nil, pool, 5)

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)
}

func TestRank_TopNTruncation(t *testing.T) {
	pool := make([]retrieval.Chunk, 10)
	for i := range pool {
		pool[i] = retrieval.Chunk{ID: string(rune('a' + i)), Content: "funding news"}
	}

	results := retrieval.Rank("funding", nil, pool, 3)
	assert.Len(t, results, 3)
}

type mockPool struct {
	mock.Mock
}

func (m *mockPool) RecentChunks(ctx context.Context, limit int) ([]retrieval.Chunk, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Chunk), args.Error(1)
}

type mockExpander struct {
	mock.Mock
}

func (m *mockExpander) Extract(ctx context.Context, text string) []string {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func TestService_Search(t *testing.T) {
	pool := new(mockPool)
	expander := new(mockExpander)

	chunks := []retrieval.Chunk{
		{ID: "c1", Content: "bangalore fintech deal flow has doubled", Keywords: []string{"fintech"}},
		{ID: "c2", Content: "weather report"},
	}
	pool.On("RecentChunks", mock.Anything, 50).Return(chunks, nil)
	expander.On("Extract", mock.Anything, "FinTech in Bangalore").Return([]string{"fintech", "bangalore"})

	svc := retrieval.NewService(pool, expander, nil, 50, 5)

	results, keywords, err := svc.Search(context.Background(), "FinTech in Bangalore")
	require.NoError(t, err)
	assert.Equal(t, []string{"fintech", "bangalore"}, keywords)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)

	pool.AssertExpectations(t)
	expander.AssertExpectations(t)
}

func TestService_Search_PoolError(t *testing.T) {
	pool := new(mockPool)
	pool.On("RecentChunks", mock.Anything, 50).Return(nil, assert.AnError)

	svc := retrieval.NewService(pool, nil, nil, 50, 5)

	_, _, err := svc.Search(context.Background(), "anything")
	assert.ErrorIs(t, err, assert.AnError)
}
