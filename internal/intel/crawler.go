package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Crawler is the collection side of intel ingestion: it fetches page content
// through a Firecrawl-compatible scrape API and hands the extracted text to
// ParseIntel. The analysis core never calls it; feeds are collected before a
// run starts.
type Crawler struct {
	client *resty.Client
}

// NewCrawler builds a client against a Firecrawl-compatible endpoint.
// Transient failures are retried with backoff before surfacing an error.
func NewCrawler(baseURL, apiKey string) *Crawler {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond)
	return &Crawler{client: client}
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
	Error string `json:"error"`
}

// Scrape fetches one page and returns it as a parsed intel signal keyed by
// its URL.
func (c *Crawler) Scrape(ctx context.Context, url string) (models.IntelSignal, error) {
	var out scrapeResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(scrapeRequest{URL: url, Formats: []string{"markdown"}}).
		SetResult(&out).
		Post("/v1/scrape")
	if err != nil {
		return models.IntelSignal{}, fmt.Errorf("intel: scrape request failed: %w", err)
	}
	if resp.IsError() {
		return models.IntelSignal{}, fmt.Errorf("intel: scrape returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Success {
		return models.IntelSignal{}, fmt.Errorf("intel: scrape unsuccessful: %s", out.Error)
	}
	return ParseIntel(url, out.Data.Markdown), nil
}
