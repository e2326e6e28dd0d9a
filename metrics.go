package recordsync

import "time"

// RunMetrics records the outcome of each pipeline step.
type RunMetrics interface {
	// ScrapeDone records the terminal result of one reference and the time
	// spent on it.
	ScrapeDone(result *ScrapeResult, elapsed time.Duration)

	// PublishDone records a publish attempt. pub is non-nil when the product
	// was created, even if err reports a later failure.
	PublishDone(pub *Publication, err error)
}
