// Package pipeline runs a scrape and publishes each success as soon as it is
// scraped, on a background worker that reports progress over a channel.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/scrape"
)

// Scraper runs the scrape phase. *scrape.Orchestrator implements it.
type Scraper interface {
	Run(ctx context.Context, refs []recordsync.Reference, observe scrape.ObserverFunc) ([]*recordsync.ScrapeResult, error)
}

// Coordinator drives a full run.
type Coordinator struct {
	Scraper Scraper

	// Publisher is optional; without it the run only scrapes.
	Publisher recordsync.Publisher

	// Metrics is optional.
	Metrics recordsync.RunMetrics

	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// EventType indicates the type of pipeline event.
type EventType int

const (
	EventScraped EventType = iota
	EventPublished
	EventFinished
)

// Event reports pipeline progress.
type Event struct {
	Type        EventType
	Index       int // 1-based
	Total       int
	Reference   recordsync.Reference
	Status      recordsync.ScrapeStatus
	Publication *recordsync.Publication
	Err         error

	// Summary is set on EventFinished.
	Summary *Summary
}

// Message returns a human-readable progress line.
func (e Event) Message() string {
	switch e.Type {
	case EventScraped:
		return fmt.Sprintf("[%d/%d] %s: %s", e.Index, e.Total, e.Reference, e.Status)
	case EventPublished:
		if e.Err != nil {
			if e.Publication != nil {
				return fmt.Sprintf("%s: published as product %s with errors: %s", e.Reference, e.Publication.ProductID, recordsync.ErrorMessage(e.Err))
			}
			return fmt.Sprintf("%s: publish failed: %s", e.Reference, recordsync.ErrorMessage(e.Err))
		}
		return fmt.Sprintf("%s: published as product %s (%d images)", e.Reference, e.Publication.ProductID, len(e.Publication.ImageIDs))
	case EventFinished:
		return e.Summary.Message()
	default:
		return ""
	}
}

// Summary aggregates the outcome of a run.
type Summary struct {
	Total         int
	Counts        map[recordsync.ScrapeStatus]int
	Published     int
	PublishFailed int
	Duration      time.Duration
	Results       []*recordsync.ScrapeResult
	Publications  []*recordsync.Publication

	// Err is the fatal error that stopped the run, if any.
	Err error
}

// Message returns the final status line of the run.
func (s *Summary) Message() string {
	var b strings.Builder
	if s.Err != nil {
		fmt.Fprintf(&b, "Run failed: %s. ", recordsync.ErrorMessage(s.Err))
	}
	fmt.Fprintf(&b, "%d/%d scraped", s.Counts[recordsync.StatusSuccess], s.Total)
	if n := s.Counts[recordsync.StatusNotFound]; n > 0 {
		fmt.Fprintf(&b, ", %d not found", n)
	}
	if n := s.Counts[recordsync.StatusExtractionFailed]; n > 0 {
		fmt.Fprintf(&b, ", %d failed", n)
	}
	fmt.Fprintf(&b, ", %d published", s.Published)
	if s.PublishFailed > 0 {
		fmt.Fprintf(&b, ", %d publish errors", s.PublishFailed)
	}
	fmt.Fprintf(&b, " in %s", s.Duration.Round(time.Second))
	return b.String()
}

// Start runs the pipeline for lines on a new goroutine and returns its
// events. The last event is EventFinished, after which the channel is
// closed. The caller must drain the channel.
//
// lines is copied before Start returns. Each reference may appear once;
// a duplicate fails the run before anything is scraped.
func (c *Coordinator) Start(ctx context.Context, lines []recordsync.CommercialLine) <-chan Event {
	refs := recordsync.References(lines)
	index := recordsync.NewLines(lines)

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		summary := c.run(ctx, refs, index, func(e Event) { events <- e })
		events <- Event{Type: EventFinished, Total: summary.Total, Err: summary.Err, Summary: summary}
	}()
	return events
}

// Run runs the pipeline and blocks until it finishes. progress, if not nil,
// receives every event except the last.
func (c *Coordinator) Run(ctx context.Context, lines []recordsync.CommercialLine, progress func(Event)) *Summary {
	for e := range c.Start(ctx, lines) {
		if e.Type == EventFinished {
			return e.Summary
		}
		if progress != nil {
			progress(e)
		}
	}
	return nil
}

func (c *Coordinator) run(ctx context.Context, refs []recordsync.Reference, index recordsync.Lines, emit func(Event)) *Summary {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	summary := &Summary{
		Total:  len(refs),
		Counts: make(map[recordsync.ScrapeStatus]int),
	}
	begin := now()
	last := begin

	seen := make(map[recordsync.Reference]bool, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			summary.Err = recordsync.Errorf(recordsync.EINVALID, "reference %s listed twice", ref)
			logger.Error("run rejected", "err", summary.Err)
			return summary
		}
		seen[ref] = true
	}

	observe := func(e scrape.Event) {
		if e.Type != scrape.EventReference {
			return
		}
		result := e.Result
		summary.Counts[result.Status]++
		if c.Metrics != nil {
			c.Metrics.ScrapeDone(result, now().Sub(last))
		}
		emit(Event{
			Type:      EventScraped,
			Index:     e.Index,
			Total:     e.Total,
			Reference: e.Reference,
			Status:    result.Status,
			Err:       result.Err,
		})

		if result.Status == recordsync.StatusSuccess && c.Publisher != nil {
			c.publish(ctx, result, index, summary, logger, emit)
		}
		last = now()
	}

	results, err := c.Scraper.Run(ctx, refs, observe)
	summary.Results = results
	summary.Err = err
	summary.Duration = now().Sub(begin)
	if err != nil {
		logger.Error("run stopped", "err", err)
	}
	return summary
}

func (c *Coordinator) publish(ctx context.Context, result *recordsync.ScrapeResult, index recordsync.Lines, summary *Summary, logger *slog.Logger, emit func(Event)) {
	line, ok := index[result.Reference]
	if !ok {
		logger.Warn("no commercial line, not publishing", "reference", result.Reference)
		return
	}

	pub, err := c.Publisher.Publish(ctx, result, line)
	if c.Metrics != nil {
		c.Metrics.PublishDone(pub, err)
	}
	if pub != nil {
		summary.Published++
		summary.Publications = append(summary.Publications, pub)
	}
	if err != nil {
		summary.PublishFailed++
	}
	emit(Event{
		Type:        EventPublished,
		Reference:   result.Reference,
		Status:      result.Status,
		Publication: pub,
		Err:         err,
	})
}
