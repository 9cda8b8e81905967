package query

import (
	"context"
	"fmt"
	"strings"

	"venturelens/backend/internal/adapter/gemini"
	"venturelens/backend/internal/adapter/websearch"
	"venturelens/backend/internal/retrieval"
)

// maxHistoryTurns bounds how much conversation context rides along with
// each query.
const maxHistoryTurns = 10

const systemPromptBase = `You are VentureLens, an expert AI assistant specializing in Indian startup funding intelligence. Your role is to provide accurate, grounded insights about:

1. **Startup Funding**: Investment rounds, valuations, funding trends, deal sizes
2. **Investors**: VCs, angel investors, PE firms, their portfolios and investment patterns
3. **Government Policies**: Startup India schemes, tax benefits, grants, subsidies
4. **Ecosystem Trends**: Sector-wise analysis, emerging opportunities, market dynamics

Guidelines:
- Always provide specific, actionable information
- When discussing funding amounts, use appropriate units (₹Cr, $M, etc.)
- Cite sources when possible and mention if data might be outdated
- Be transparent about limitations of your knowledge
- For policy questions, mention eligibility criteria and deadlines when known
- **IMPORTANT**: If context from uploaded documents is provided, prioritize that information and reference which document it came from
- If the context is relevant, use it to enhance your response`

const webPromptBase = `You are VentureLens, an expert AI assistant specializing in Indian startup funding intelligence. You are now searching the web for real-time information.

Your role is to provide accurate, up-to-date insights about:
1. **Startup Funding**: Investment rounds, valuations, funding trends, deal sizes
2. **Investors**: VCs, angel investors, PE firms, their portfolios and investment patterns
3. **Government Policies**: State-specific startup missions, tax benefits, grants, subsidies
4. **Ecosystem Trends**: Sector-wise analysis, emerging opportunities, market dynamics

Guidelines:
- Provide specific, actionable information from web search results
- When discussing funding amounts, use appropriate units (₹Cr, $M, etc.)
- Always cite your sources clearly
- Focus on the most recent and relevant information
- For policy questions, mention eligibility criteria and official links when available`

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Query    string `json:"query"`
	Language string `json:"language"`
	Mode     string `json:"mode"` // "documents" (default) or "web"
	History  []Turn `json:"conversation_history"`
}

// SourceRef identifies a document cited in the answer.
type SourceRef struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type Retriever interface {
	Search(ctx context.Context, query string) ([]retrieval.ScoredChunk, []string, error)
}

type Completer interface {
	StreamCompletion(ctx context.Context, messages []gemini.Message) (*gemini.CompletionStream, error)
}

type WebSearcher interface {
	Search(ctx context.Context, systemPrompt, query string) (*websearch.Result, error)
}

type Service struct {
	retriever Retriever
	completer Completer
	web       WebSearcher
}

func NewService(retriever Retriever, completer Completer, web WebSearcher) *Service {
	return &Service{retriever: retriever, completer: completer, web: web}
}

// Answer carries a live completion stream plus the documents the
// assembled context cited. Callers own closing the stream.
type Answer struct {
	Stream  *gemini.CompletionStream
	Sources []SourceRef
}

// Ask retrieves grounding context and opens a streamed completion. An
// empty retrieval result still produces an answer, just without
// document context.
func (s *Service) Ask(ctx context.Context, req Request) (*Answer, error) {
	chunks, _, err := s.retriever.Search(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	messages := buildMessages(req, chunks)

	stream, err := s.completer.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &Answer{Stream: stream, Sources: sourceRefs(chunks)}, nil
}

// AskWeb answers from live web search instead of the document store.
func (s *Service) AskWeb(ctx context.Context, req Request) (*websearch.Result, error) {
	lang := languageFor(req.Language)
	prompt := webPromptBase + "\n\n" + lang.Prompt
	return s.web.Search(ctx, prompt, req.Query)
}

func buildMessages(req Request, chunks []retrieval.ScoredChunk) []gemini.Message {
	lang := languageFor(req.Language)

	var contextText string
	if len(chunks) > 0 {
		parts := make([]string, len(chunks))
		for i, c := range chunks {
			parts[i] = fmt.Sprintf("[Source: %s]\n%s", c.Title, c.Content)
		}
		contextText = strings.Join(parts, "\n\n")
	}

	system := systemPromptBase + "\n\n" + lang.Prompt
	if contextText != "" {
		system += "\n" + contextText
	}

	history := req.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]gemini.Message, 0, len(history)+2)
	messages = append(messages, gemini.Message{Role: "system", Content: system})
	for _, turn := range history {
		messages = append(messages, gemini.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, gemini.Message{Role: "user", Content: req.Query})
	return messages
}

func sourceRefs(chunks []retrieval.ScoredChunk) []SourceRef {
	seen := make(map[string]bool)
	refs := make([]SourceRef, 0, len(chunks))
	for _, c := range chunks {
		name := c.Title
		if name == "" {
			name = c.URL
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, SourceRef{Name: name, Category: "document"})
	}
	return refs
}
