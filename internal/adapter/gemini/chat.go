package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"venturelens/backend/internal/stream"
)

// Known upstream failure categories the API surface reports distinctly.
var (
	ErrRateLimited    = errors.New("completion api rate limited")
	ErrQuotaExhausted = errors.New("completion api quota exhausted")
)

const defaultChatEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient talks to the OpenAI-compatible completion endpoint in
// streaming mode.
type ChatClient struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
}

func NewChatClient(apiKey string) *ChatClient {
	return &ChatClient{
		apiKey: apiKey,
		model:  "gemini-2.0-flash",
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *ChatClient) SetBaseURL(url string) {
	c.baseURL = url
}

// CompletionStream owns the response body; callers must Close it once
// drained.
type CompletionStream struct {
	*stream.Decoder
	body io.ReadCloser
}

func (s *CompletionStream) Close() error {
	return s.body.Close()
}

func (c *ChatClient) StreamCompletion(ctx context.Context, messages []Message) (*CompletionStream, error) {
	url := defaultChatEndpoint
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   true,
	}

	jsonBody, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, string(detail))
		case http.StatusPaymentRequired:
			return nil, fmt.Errorf("%w: %s", ErrQuotaExhausted, string(detail))
		default:
			return nil, fmt.Errorf("completion api error %d: %s", resp.StatusCode, string(detail))
		}
	}

	return &CompletionStream{
		Decoder: stream.NewDecoder(resp.Body),
		body:    resp.Body,
	}, nil
}
