package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultScrapeEndpoint = "https://api.firecrawl.dev/v1/scrape"

// Page is a scraped web page reduced to what ingestion needs.
type Page struct {
	URL     string
	Title   string
	Content string
}

// Client scrapes pages through the Firecrawl API when a key is
// configured, and falls back to a plain fetch otherwise.
type Client struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) Scrape(ctx context.Context, url string) (*Page, error) {
	if c.apiKey == "" {
		return c.fetchDirect(ctx, url)
	}
	return c.scrapeFirecrawl(ctx, url)
}

func (c *Client) scrapeFirecrawl(ctx context.Context, url string) (*Page, error) {
	endpoint := defaultScrapeEndpoint
	if c.baseURL != "" {
		endpoint = c.baseURL
	}

	reqBody := map[string]interface{}{
		"url":             url,
		"formats":         []string{"markdown"},
		"onlyMainContent": true,
		"waitFor":         2000,
	}

	jsonBody, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
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
		return nil, fmt.Errorf("firecrawl error: %d - %s", resp.StatusCode, string(detail))
	}

	// The scrape payload has shipped both nested and flat over time;
	// accept either shape.
	var result struct {
		Markdown string `json:"markdown"`
		Data     struct {
			Markdown string `json:"markdown"`
			Metadata struct {
				Title string `json:"title"`
			} `json:"metadata"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	content := result.Data.Markdown
	if content == "" {
		content = result.Markdown
	}

	return &Page{URL: url, Title: result.Data.Metadata.Title, Content: content}, nil
}

// fetchDirect pulls the page itself and strips it down to readable
// text. It sees less than Firecrawl on script-rendered sites, which is
// acceptable for a keyless deployment.
func (c *Client) fetchDirect(ctx context.Context, url string) (*Page, error) {
	slog.DebugContext(ctx, "scraping without firecrawl key, fetching directly", "url", url)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "venturelens-crawler/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch error: %d for %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, nav, footer, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	root := doc.Find("main")
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var paragraphs []string
	root.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	content := strings.Join(paragraphs, "\n\n")
	if content == "" {
		content = strings.Join(strings.Fields(root.Text()), " ")
	}

	return &Page{URL: url, Title: title, Content: content}, nil
}
