package crawler

import (
	"context"

	"github.com/poiesic/sitebot/core"
)

// Crawler fetches pages from a website, up to a page budget.
// The HTML parsing itself lives behind this interface; the pipeline only
// consumes the resulting page records. A crawl may take minutes, so
// implementations must honor ctx cancellation.
// Implementations must be thread-safe for concurrent use.
type Crawler interface {
	// Crawl fetches up to maxPages pages starting at url.
	// Returns an error on network or parse failure. An empty result is
	// not an error at this layer; the scrape worker treats it as one.
	Crawl(ctx context.Context, url string, maxPages int) ([]core.Page, error)
}
