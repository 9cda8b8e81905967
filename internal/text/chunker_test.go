package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkParagraphs(t *testing.T) {
	t.Run("Single Paragraph", func(t *testing.T) {
		text := strings.Repeat("startup funding news and analysis ", 3)
		chunks := ChunkParagraphs(text, 1000, 0)
		assert.Len(t, chunks, 1)
		assert.Equal(t, strings.TrimSpace(text), chunks[0])
	})

	t.Run("Accumulates Paragraphs Up To Max", func(t *testing.T) {
		p1 := strings.Repeat("alpha ", 20)  // ~120 chars
		p2 := strings.Repeat("beta ", 20)   // ~100 chars
		p3 := strings.Repeat("gamma ", 100) // ~600 chars
		text := p1 + "\n\n" + p2 + "\n\n" + p3

		chunks := ChunkParagraphs(text, 300, 0)
		assert.True(t, len(chunks) >= 2)
		for _, c := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(c))
		}
		// First two paragraphs fit together, the third does not.
		assert.Contains(t, chunks[0], "alpha")
		assert.Contains(t, chunks[0], "beta")
	})

	t.Run("Oversized Paragraph Splits At Sentence Boundary", func(t *testing.T) {
		sentence := "The fintech startup closed a large round and plans to expand across three new markets this year."
		para := strings.TrimSpace(strings.Repeat(sentence+" ", 5))
		intro := strings.Repeat("intro paragraph describing the newsletter edition ", 2)
		outro := strings.Repeat("closing paragraph with subscription details included ", 2)
		text := intro + "\n\n" + para + "\n\n" + outro

		chunks := ChunkParagraphs(text, 200, 0)
		assert.True(t, len(chunks) >= 3)
		for _, c := range chunks {
			if len(c) > 200 {
				// Only an atomic sentence may exceed the bound.
				assert.NotContains(t, strings.TrimSuffix(c, "."), ". ")
			}
		}
		// The oversized paragraph must have been cut at a sentence boundary.
		found := false
		for _, c := range chunks {
			if strings.HasSuffix(c, "this year.") {
				found = true
			}
		}
		assert.True(t, found, "sentence-bounded chunk expected")
	})

	t.Run("Drops Short Fragments", func(t *testing.T) {
		text := "short\n\nalso short\n\n" + strings.Repeat("a paragraph long enough to survive the noise floor ", 3)
		chunks := ChunkParagraphs(text, 1000, 0)
		for _, c := range chunks {
			assert.Greater(t, len(strings.TrimSpace(c)), MinChunkLength)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := strings.Repeat("deterministic paragraph content for the chunker ", 30)
		a := ChunkParagraphs(text, 400, 0)
		b := ChunkParagraphs(text, 400, 0)
		assert.Equal(t, a, b)
	})
}

func TestChunkWindow(t *testing.T) {
	t.Run("Overlapping Windows", func(t *testing.T) {
		text := strings.Repeat("0123456789", 30) // 300 chars
		chunks := ChunkWindow(text, 100, 20, 0)
		assert.True(t, len(chunks) >= 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 100)
		}
		// Consecutive chunks share the overlap region.
		tail := chunks[0][len(chunks[0])-20:]
		assert.Equal(t, tail, chunks[1][:20])
	})

	t.Run("Whitespace Normalized", func(t *testing.T) {
		text := "word1\n\n\tword2    word3\r\nword4 " + strings.Repeat("filler ", 20)
		chunks := ChunkWindow(text, 800, 150, 0)
		assert.Len(t, chunks, 1)
		assert.NotContains(t, chunks[0], "\n")
		assert.NotContains(t, chunks[0], "  ")
	})

	t.Run("Short Input Dropped", func(t *testing.T) {
		chunks := ChunkWindow("too short to keep", 800, 150, 0)
		assert.Empty(t, chunks)
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.Nil(t, ChunkWindow("", 800, 150, 0))
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := strings.Repeat("overlap window determinism check ", 40)
		a := ChunkWindow(text, 200, 50, 0)
		b := ChunkWindow(text, 200, 50, 0)
		assert.Equal(t, a, b)
	})
}

func TestMinLengthConfigurable(t *testing.T) {
	text := strings.Repeat("0123456789", 30) // 300 chars, no whitespace loss

	// The 100-char windows survive the default floor but not a raised one.
	assert.NotEmpty(t, ChunkWindow(text, 100, 0, 0))
	assert.Empty(t, ChunkWindow(text, 100, 0, 150))

	para := strings.Repeat("short paragraph body ", 3) // ~60 chars
	assert.NotEmpty(t, ChunkParagraphs(para, 1000, 0))
	assert.Empty(t, ChunkParagraphs(para, 1000, 80))
}
