package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Chunk is one stored excerpt from the candidate pool.
type Chunk struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"documentId"`
	Index      int      `json:"index"`
	Content    string   `json:"content"`
	Keywords   []string `json:"keywords,omitempty"`
	Title      string   `json:"title,omitempty"`
	URL        string   `json:"url,omitempty"`
	SourceType string   `json:"sourceType,omitempty"`
}

type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// minTokenLength drops short query tokens; almost all of them are
// stopwords and they dominate substring hits otherwise.
const minTokenLength = 4

// substantialChunkLength is the content length above which a scoring
// chunk earns a small bonus over fragments.
const substantialChunkLength = 200

// Rank scores the candidate pool against the query and its expanded
// keywords and returns the top-N chunks by descending score, original
// pool order preserved on ties. Chunks that match nothing are excluded
// outright: an empty result is preferred over low-confidence noise.
func Rank(query string, queryKeywords []string, pool []Chunk, topN int) []ScoredChunk {
	tokens := queryTokens(query)

	scored := make([]ScoredChunk, 0, len(pool))
	for _, chunk := range pool {
		content := strings.ToLower(chunk.Content)

		var score float64
		for _, tok := range tokens {
			if strings.Contains(content, tok) {
				score++
			}
		}

		// Keyword scoring only applies to tagged chunks; an untagged
		// chunk ranks on its lexical overlap alone.
		if len(chunk.Keywords) > 0 {
			for _, qk := range queryKeywords {
				for _, ck := range chunk.Keywords {
					if strings.Contains(ck, qk) || strings.Contains(qk, ck) {
						score += 3
					}
				}
				if strings.Contains(content, qk) {
					score++
				}
			}
		}

		if score > 0 && len(chunk.Content) > substantialChunkLength {
			score += 0.5
		}

		if score > 0 {
			scored = append(scored, ScoredChunk{Chunk: chunk, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

func queryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ChunkPool supplies the bounded candidate set the ranker scores.
type ChunkPool interface {
	RecentChunks(ctx context.Context, limit int) ([]Chunk, error)
}

// KeywordExpander turns the raw query into search keywords; a nil or
// empty result just means no semantic expansion this round.
type KeywordExpander interface {
	Extract(ctx context.Context, text string) []string
}

type Service struct {
	pool     ChunkPool
	expander KeywordExpander
	logger   *QueryLogger
	poolSize int
	topK     int
}

func NewService(pool ChunkPool, expander KeywordExpander, logger *QueryLogger, poolSize, topK int) *Service {
	return &Service{pool: pool, expander: expander, logger: logger, poolSize: poolSize, topK: topK}
}

// Search expands the query into keywords, loads the candidate pool and
// ranks it. The expanded keywords are returned alongside the results so
// the caller can reuse them in prompt assembly.
func (s *Service) Search(ctx context.Context, query string) ([]ScoredChunk, []string, error) {
	start := time.Now()
	var results []ScoredChunk
	var keywords []string
	var err error

	defer func() {
		if s.logger != nil && err == nil {
			s.logger.Log(QueryLogEntry{
				Query:      query,
				Keywords:   keywords,
				NumResults: len(results),
				Duration:   time.Since(start),
			})
		}
	}()

	if s.expander != nil {
		keywords = s.expander.Extract(ctx, query)
	}

	pool, err := s.pool.RecentChunks(ctx, s.poolSize)
	if err != nil {
		return nil, nil, err
	}

	results = Rank(query, keywords, pool, s.topK)
	return results, keywords, nil
}
