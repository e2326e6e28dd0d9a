package recordsync

import "context"

// Publication is the outcome of publishing one reference to the catalog.
type Publication struct {
	Reference Reference
	ProductID string
	ImageIDs  []string

	// Skipped lists local files that were not uploaded because they are
	// not recognized images.
	Skipped []string

	// Failed lists images the platform rejected.
	Failed []string
}

// Publisher creates catalog products from scrape results.
type Publisher interface {
	// Publish merges a successful scrape result with its commercial line and
	// creates the remote product. Returns EINVALID for non-successful
	// results and EREMOTE when the commerce platform rejects a step.
	// Once the product exists the returned Publication is non-nil, even
	// when a later step fails.
	Publish(ctx context.Context, result *ScrapeResult, line CommercialLine) (*Publication, error)
}
