package recordsync

import "context"

// ScrapeStatus is the state of a reference within a scrape run.
type ScrapeStatus int

// Scrape states. NotFound, ExtractionFailed and Success are terminal.
const (
	StatusPending ScrapeStatus = iota
	StatusResolving
	StatusResolved
	StatusExtracting
	StatusNotFound
	StatusExtractionFailed
	StatusSuccess
)

// String returns a human readable label for the status.
func (s ScrapeStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolving:
		return "resolving"
	case StatusResolved:
		return "resolved"
	case StatusExtracting:
		return "extracting"
	case StatusNotFound:
		return "not found"
	case StatusExtractionFailed:
		return "extraction failed"
	case StatusSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s ScrapeStatus) Terminal() bool {
	return s == StatusNotFound || s == StatusExtractionFailed || s == StatusSuccess
}

// ScrapeResult is the terminal outcome for one reference. It is created once
// per reference and never mutated afterwards.
type ScrapeResult struct {
	Reference Reference
	Status    ScrapeStatus
	Data      *ProductData
	Err       error
}

// Asset is a media file downloaded for a reference.
type Asset struct {
	URL      string
	Path     string
	Bytes    int64
	Checksum string
}

// ProductData holds everything extracted from a product page.
type ProductData struct {
	URL         string
	Artist      string
	Title       string
	Description string
	Tracks      []string

	// ImageDownloaded and AudioDownloaded report whether at least one asset
	// of that kind was stored.
	ImageDownloaded bool
	AudioDownloaded bool

	Images []Asset
	Audio  []Asset
}

// Name returns the catalog name "{artist}***{title}".
func (d *ProductData) Name() string {
	return d.Artist + "***" + d.Title
}

// Resolver finds the product page for a catalog reference.
type Resolver interface {
	// Resolve returns the absolute URL of the first search result for query.
	// Returns ENOTFOUND when the search yields nothing or times out.
	Resolve(ctx context.Context, s Session, query string) (string, error)
}

// Extractor scrapes a product page and downloads its media.
type Extractor interface {
	// Extract returns the product data for the page at productURL.
	// Returns EEXTRACT when required page elements cannot be located.
	Extract(ctx context.Context, s Session, productURL string, ref Reference) (*ProductData, error)
}

// Downloader stores remote assets on disk.
type Downloader interface {
	// Download streams url into dir/filename, creating dir if needed.
	// Returns EDOWNLOAD when the transfer fails or the server answers with
	// an HTML page instead of a binary asset. No file is left behind on failure.
	Download(ctx context.Context, url, dir, filename string) (*Asset, error)
}

// AssetStore manages the per-reference folders on local disk.
type AssetStore interface {
	// Dir returns the folder holding the assets for ref.
	Dir(ref Reference) string

	// Files lists the regular files in the folder for ref.
	// Returns ENOTFOUND if the folder does not exist.
	Files(ref Reference) ([]string, error)

	// SaveProduct writes the product metadata next to its media.
	SaveProduct(ref Reference, data *ProductData) error
}
