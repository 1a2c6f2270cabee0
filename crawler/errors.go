package crawler

import "errors"

var (
	// ErrCrawlFailed wraps network and crawl-service failures.
	ErrCrawlFailed = errors.New("crawl failed")

	// ErrBaseURLRequired is returned when a RemoteCrawler is built without a base URL.
	ErrBaseURLRequired = errors.New("crawler base url required")
)
