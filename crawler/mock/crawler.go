package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/sitebot/core"
)

// MockCrawler is a test double for crawler.Crawler.
// It allows custom behavior injection via a function field.
type MockCrawler struct {
	// CrawlFunc is called by Crawl if set.
	// If nil, uses default deterministic behavior.
	CrawlFunc func(ctx context.Context, url string, maxPages int) ([]core.Page, error)

	mu        sync.Mutex
	callCount int
}

// NewMockCrawler creates a mock crawler with default deterministic behavior.
func NewMockCrawler() *MockCrawler {
	return &MockCrawler{}
}

// Crawl returns a deterministic set of pages derived from the url, or
// delegates to CrawlFunc when set.
func (m *MockCrawler) Crawl(ctx context.Context, url string, maxPages int) ([]core.Page, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.CrawlFunc != nil {
		return m.CrawlFunc(ctx, url, maxPages)
	}

	count := 3
	if maxPages < count {
		count = maxPages
	}
	pages := make([]core.Page, count)
	for i := range pages {
		pages[i] = core.Page{
			URL:     fmt.Sprintf("%s/page-%d", url, i+1),
			Title:   fmt.Sprintf("Page %d", i+1),
			Content: fmt.Sprintf("Content of page %d on %s.", i+1, url),
		}
	}
	return pages, nil
}

// CallCount returns the number of times Crawl was called.
func (m *MockCrawler) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
