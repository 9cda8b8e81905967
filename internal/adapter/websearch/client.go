package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrRateLimited = errors.New("web search rate limited")

const defaultEndpoint = "https://api.perplexity.ai/chat/completions"

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Result struct {
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
}

// Client performs grounded web-search completions against a
// Perplexity-compatible endpoint.
type Client struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  "sonar",
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) Search(ctx context.Context, systemPrompt, query string) (*Result, error) {
	url := defaultEndpoint
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": query},
		},
		"search_recency_filter": "month",
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
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, string(detail))
		}
		return nil, fmt.Errorf("web search api error %d: %s", resp.StatusCode, string(detail))
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Citations []string `json:"citations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	result := &Result{}
	if len(payload.Choices) > 0 {
		result.Content = payload.Choices[0].Message.Content
	}
	for i, url := range payload.Citations {
		result.Citations = append(result.Citations, Citation{
			Title: fmt.Sprintf("Source %d", i+1),
			URL:   url,
		})
	}
	return result, nil
}
