// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/sitebot/core"
)

// RemoteCrawler implements Crawler against a crawl service that accepts
// {url, maxPages} and streams back page records as JSON.
type RemoteCrawler struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ Crawler = (*RemoteCrawler)(nil)

// RemoteOption configures a RemoteCrawler.
type RemoteOption func(*RemoteCrawler)

// WithHTTPClient sets a custom HTTP client. The default has no timeout;
// crawls legitimately run for minutes and are bounded by ctx instead.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(c *RemoteCrawler) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) RemoteOption {
	return func(c *RemoteCrawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRemoteCrawler creates a crawler client for the service at baseURL.
func NewRemoteCrawler(baseURL string, opts ...RemoteOption) (*RemoteCrawler, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &RemoteCrawler{
		baseURL: baseURL,
		client:  &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "crawler")

	return c, nil
}

type crawlRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"maxPages"`
}

type crawlResponse struct {
	Pages []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"pages"`
	Error string `json:"error,omitempty"`
}

// Crawl fetches up to maxPages pages starting at url.
func (c *RemoteCrawler) Crawl(ctx context.Context, url string, maxPages int) ([]core.Page, error) {
	start := time.Now()
	c.logger.Info("starting crawl", "url", url, "maxPages", maxPages)

	body, err := json.Marshal(crawlRequest{URL: url, MaxPages: maxPages})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crawl", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrawlFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: crawl service returned %d", ErrCrawlFailed, resp.StatusCode)
	}

	var decoded crawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrawlFailed, err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrCrawlFailed, decoded.Error)
	}

	pages := make([]core.Page, 0, len(decoded.Pages))
	for _, p := range decoded.Pages {
		pages = append(pages, core.Page{URL: p.URL, Title: p.Title, Content: p.Content})
	}

	c.logger.Info("crawl finished", "url", url, "pages", len(pages), "elapsed", time.Since(start).Round(time.Millisecond))
	return pages, nil
}
