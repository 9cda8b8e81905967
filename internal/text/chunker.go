package text

import (
	"regexp"
	"strings"
)

// MinChunkLength is the default floor below which a trimmed segment is
// considered noise and dropped rather than stored. Callers may pass a
// different floor; a non-positive value falls back to this default.
const MinChunkLength = 50

var (
	paragraphRe  = regexp.MustCompile(`\n\n+`)
	sentenceRe   = regexp.MustCompile(`([.!?])\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ChunkParagraphs splits text on blank-line boundaries and accumulates
// paragraphs into chunks of at most maxSize characters. A single paragraph
// that alone exceeds maxSize is further split on sentence boundaries; an
// atomic sentence longer than maxSize is emitted as its own chunk rather
// than cut mid-sentence. Chunks with trimmed length not above minLen are
// discarded.
func ChunkParagraphs(text string, maxSize, minLen int) []string {
	paragraphs := paragraphRe.Split(text, -1)
	var chunks []string
	var current strings.Builder

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		if current.Len()+len(para) > maxSize {
			flush()
			if len(para) > maxSize {
				chunks = append(chunks, chunkSentences(para, maxSize)...)
				continue
			}
			current.WriteString(para)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return filterShort(chunks, minLen)
}

// chunkSentences splits an oversized paragraph at terminal punctuation
// followed by whitespace, accumulating sentences up to maxSize.
func chunkSentences(paragraph string, maxSize int) []string {
	sentences := splitSentences(paragraph)
	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		if current.Len()+len(sentence) > maxSize {
			if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			current.Reset()
			current.WriteString(sentence)
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// splitSentences cuts after terminal punctuation followed by whitespace,
// keeping the punctuation attached to the preceding sentence.
func splitSentences(s string) []string {
	marked := sentenceRe.ReplaceAllString(s, "$1\x00")
	parts := strings.Split(marked, "\x00")
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// ChunkWindow whitespace-normalizes the text and slides a fixed-size window
// across it, advancing by (size - overlap) so consecutive chunks share an
// overlap region. Chunks with trimmed length not above minLen are
// discarded.
func ChunkWindow(text string, size, overlap, minLen int) []string {
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if cleaned == "" || size <= 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(cleaned); start += step {
		end := start + size
		if end > len(cleaned) {
			end = len(cleaned)
		}
		chunk := strings.TrimSpace(cleaned[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return filterShort(chunks, minLen)
}

func filterShort(chunks []string, minLen int) []string {
	if minLen <= 0 {
		minLen = MinChunkLength
	}
	filtered := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(strings.TrimSpace(c)) > minLen {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
