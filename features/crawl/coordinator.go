package crawl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"venturelens/backend/features/document"
	"venturelens/backend/internal/adapter/firecrawl"
)

// defaultMinContentChars is the default floor below which a scraped page
// is treated as empty (paywall interstitials, bot checks, error pages).
const defaultMinContentChars = 100

// Source is one curated funding-news page the crawler refreshes.
type Source struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// DefaultSources are the Indian startup funding pages crawled when no
// custom list is configured.
var DefaultSources = []Source{
	{Name: "Inc42 Funding Galore", URL: "https://inc42.com/buzz/funding-galore", Category: "funding_news"},
	{Name: "YourStory Funding", URL: "https://yourstory.com/companies/funding", Category: "funding_news"},
	{Name: "Entrackr Funding", URL: "https://entrackr.com/category/funding/", Category: "funding_news"},
	{Name: "VCCircle Deals", URL: "https://www.vccircle.com/deals", Category: "deals"},
	{Name: "Startup India Schemes", URL: "https://startupindia.gov.in/content/sih/en/government-schemes.html", Category: "government_policy"},
}

type Scraper interface {
	Scrape(ctx context.Context, url string) (*firecrawl.Page, error)
}

type DocumentStore interface {
	UpsertByOrigin(ctx context.Context, doc *document.Document) error
	UpdatedWithin(ctx context.Context, origin string, hours int) (bool, error)
}

type Ingestor interface {
	IngestPage(ctx context.Context, documentID, title, url, content string) (chunks, deals int, err error)
}

// Result is the per-source outcome of one crawl run.
type Result struct {
	Source         string `json:"source"`
	URL            string `json:"url"`
	Category       string `json:"category"`
	Status         string `json:"status"` // success, skipped, error
	Reason         string `json:"reason,omitempty"`
	ContentLength  int    `json:"contentLength,omitempty"`
	Chunks         int    `json:"chunks,omitempty"`
	FundingRecords int    `json:"fundingRecords,omitempty"`
}

// Summary aggregates one full crawl pass across all sources.
type Summary struct {
	SourcesProcessed int      `json:"sourcesProcessed"`
	SourcesSkipped   int      `json:"sourcesSkipped"`
	ErrorCount       int      `json:"errorCount"`
	DurationMs       int64    `json:"durationMs"`
	Results          []Result `json:"results"`
	ErrorDetails     []string `json:"errorDetails,omitempty"`
}

// Coordinator walks the source list sequentially, refreshing each page
// into the document store. One failing source never aborts the run.
type Coordinator struct {
	scraper     Scraper
	docs        DocumentStore
	ingestor    Ingestor
	sources     []Source
	windowHours int
	minContent  int
	delay       time.Duration
}

func NewCoordinator(scraper Scraper, docs DocumentStore, ingestor Ingestor, sources []Source, windowHours, minContent int, delay time.Duration) *Coordinator {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	if minContent <= 0 {
		minContent = defaultMinContentChars
	}
	return &Coordinator{
		scraper:     scraper,
		docs:        docs,
		ingestor:    ingestor,
		sources:     sources,
		windowHours: windowHours,
		minContent:  minContent,
		delay:       delay,
	}
}

// Run crawls every source in order, pausing between requests to stay
// polite to the upstream sites.
func (c *Coordinator) Run(ctx context.Context) Summary {
	start := time.Now()
	summary := Summary{Results: make([]Result, 0, len(c.sources))}

	for i, src := range c.sources {
		if i > 0 && c.delay > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				summary.ErrorCount++
				summary.ErrorDetails = append(summary.ErrorDetails, src.Name+": "+ctx.Err().Error())
				summary.DurationMs = time.Since(start).Milliseconds()
				return summary
			}
		}

		result := c.crawlSource(ctx, src)
		summary.Results = append(summary.Results, result)

		switch result.Status {
		case "success":
			summary.SourcesProcessed++
		case "skipped":
			summary.SourcesSkipped++
		default:
			summary.ErrorCount++
			summary.ErrorDetails = append(summary.ErrorDetails, src.Name+": "+result.Reason)
		}
	}

	summary.DurationMs = time.Since(start).Milliseconds()
	slog.InfoContext(ctx, "crawl run finished",
		"processed", summary.SourcesProcessed,
		"skipped", summary.SourcesSkipped,
		"errors", summary.ErrorCount,
		"duration_ms", summary.DurationMs,
	)
	return summary
}

func (c *Coordinator) crawlSource(ctx context.Context, src Source) Result {
	result := Result{Source: src.Name, URL: src.URL, Category: src.Category}

	recent, err := c.docs.UpdatedWithin(ctx, src.URL, c.windowHours)
	if err != nil {
		result.Status = "error"
		result.Reason = err.Error()
		return result
	}
	if recent {
		result.Status = "skipped"
		result.Reason = "Recently crawled"
		slog.InfoContext(ctx, "skipping recently crawled source", "source", src.Name)
		return result
	}

	page, err := c.scraper.Scrape(ctx, src.URL)
	if err != nil {
		slog.WarnContext(ctx, "scrape failed", "source", src.Name, "error", err)
		result.Status = "error"
		result.Reason = err.Error()
		return result
	}

	content := strings.TrimSpace(page.Content)
	if len(content) < c.minContent {
		result.Status = "skipped"
		result.Reason = "Insufficient content"
		return result
	}

	title := page.Title
	if title == "" {
		title = src.Name
	}

	doc := &document.Document{
		Title:      title,
		Origin:     src.URL,
		SourceType: "web",
		Status:     document.StatusProcessing,
	}
	if err := c.docs.UpsertByOrigin(ctx, doc); err != nil {
		result.Status = "error"
		result.Reason = err.Error()
		return result
	}

	chunks, deals, err := c.ingestor.IngestPage(ctx, doc.ID, title, src.URL, content)
	if err != nil {
		result.Status = "error"
		result.Reason = err.Error()
		return result
	}

	result.Status = "success"
	result.ContentLength = len(content)
	result.Chunks = chunks
	result.FundingRecords = deals
	return result
}
