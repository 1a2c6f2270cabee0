package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRemoteCrawlerRequiresBaseURL(t *testing.T) {
	_, err := NewRemoteCrawler("")
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestRemoteCrawlerCrawl(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/crawl", r.URL.Path)

		var req crawlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com", req.URL)
		assert.Equal(t, 25, req.MaxPages)

		json.NewEncoder(w).Encode(map[string]any{
			"pages": []map[string]string{
				{"url": "https://example.com", "title": "Home", "content": "Welcome."},
				{"url": "https://example.com/about", "title": "About", "content": "Us."},
			},
		})
	}))
	defer server.Close()

	c, err := NewRemoteCrawler(server.URL)
	require.NoError(t, err)

	pages, err := c.Crawl(context.Background(), "https://example.com", 25)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Home", pages[0].Title)
	assert.Equal(t, "https://example.com/about", pages[1].URL)
}

func TestRemoteCrawlerServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "robots.txt forbids crawling"})
	}))
	defer server.Close()

	c, err := NewRemoteCrawler(server.URL)
	require.NoError(t, err)

	_, err = c.Crawl(context.Background(), "https://example.com", 25)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCrawlFailed)
	assert.Contains(t, err.Error(), "robots.txt")
}

func TestRemoteCrawlerHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c, err := NewRemoteCrawler(server.URL)
	require.NoError(t, err)

	_, err = c.Crawl(context.Background(), "https://example.com", 25)
	assert.ErrorIs(t, err, ErrCrawlFailed)
}

func TestRemoteCrawlerUnreachable(t *testing.T) {
	c, err := NewRemoteCrawler("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.Crawl(context.Background(), "https://example.com", 25)
	assert.ErrorIs(t, err, ErrCrawlFailed)
}
