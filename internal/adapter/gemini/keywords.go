package gemini

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxKeywordInput bounds the text sent for keyword extraction; anything
// beyond this prefix adds cost without improving the keyword set.
const maxKeywordInput = 1500

const keywordInstruction = "Extract the top 10 most important keywords or key phrases from this text. Return ONLY a comma-separated list of keywords, nothing else."

type KeywordExtractor struct {
	client *genai.Client
	model  string
}

func NewKeywordExtractor(ctx context.Context, apiKey string) (*KeywordExtractor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &KeywordExtractor{client: client, model: "gemini-2.0-flash"}, nil
}

// Extract returns lower-cased keywords for the given text. Keyword
// tagging only enhances retrieval, so every failure degrades to an
// empty set instead of propagating.
func (k *KeywordExtractor) Extract(ctx context.Context, text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) > maxKeywordInput {
		text = text[:maxKeywordInput]
	}

	gm := k.client.GenerativeModel(k.model)
	res, err := gm.GenerateContent(ctx, genai.Text(keywordInstruction+"\n\nText: "+text))
	if err != nil {
		slog.WarnContext(ctx, "keyword extraction failed", "error", err)
		return nil
	}
	return ParseKeywords(collectText(res))
}

// ParseKeywords splits a comma-separated model response into trimmed,
// lower-cased keywords, dropping empties.
func ParseKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		kw := strings.ToLower(strings.TrimSpace(p))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func collectText(res *genai.GenerateContentResponse) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

func (k *KeywordExtractor) Close() error {
	if k.client == nil {
		return nil
	}
	return k.client.Close()
}
