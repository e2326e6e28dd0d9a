// Package scrape runs references through the storefront one at a time over
// a single browser session.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/recordsync"
)

// Orchestrator scrapes a list of references sequentially. The browser
// session it launches is owned by a single Run and never shared.
type Orchestrator struct {
	Launcher  recordsync.Launcher
	Resolver  recordsync.Resolver
	Extractor recordsync.Extractor
	Logger    *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// EventType indicates the type of progress event.
type EventType int

const (
	// EventReference is emitted after each reference, whatever its outcome.
	EventReference EventType = iota
	// EventFinished is emitted once when the run ends.
	EventFinished
)

// Event reports progress during a run.
type Event struct {
	Type      EventType
	Index     int // 1-based
	Total     int
	Reference recordsync.Reference
	Result    *recordsync.ScrapeResult
	Duration  time.Duration
	Err       error
}

// Message returns a human-readable progress line.
func (e Event) Message() string {
	switch e.Type {
	case EventReference:
		msg := fmt.Sprintf("[%d/%d] %s: %s", e.Index, e.Total, e.Reference, e.Result.Status)
		if e.Result.Status == recordsync.StatusSuccess {
			msg += " (" + e.Result.Data.Name() + ")"
		}
		return msg
	case EventFinished:
		if e.Err != nil {
			return fmt.Sprintf("Scraping stopped after %s: %s", e.Duration.Round(time.Millisecond), recordsync.ErrorMessage(e.Err))
		}
		return fmt.Sprintf("Scraping finished in %s", e.Duration.Round(time.Millisecond))
	default:
		return ""
	}
}

// ObserverFunc receives progress events. It is called on the goroutine
// running the orchestrator.
type ObserverFunc func(Event)

// Run scrapes refs in order and returns one result per reference.
//
// A failing reference never stops the run. Only a session that cannot be
// launched or closed is fatal and returned as ESESSION. When ctx is canceled
// the run stops before the next reference and returns the results so far
// together with the context error.
func (o *Orchestrator) Run(ctx context.Context, refs []recordsync.Reference, observe ObserverFunc) (results []*recordsync.ScrapeResult, err error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	if observe == nil {
		observe = func(Event) {}
	}

	begin := now()
	defer func() {
		observe(Event{Type: EventFinished, Total: len(refs), Duration: now().Sub(begin), Err: err})
	}()

	session, err := o.Launcher.Launch(ctx)
	if err != nil {
		if recordsync.ErrorCode(err) != recordsync.ESESSION {
			err = recordsync.Errorf(recordsync.ESESSION, "launching browser: %v", err)
		}
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = recordsync.Errorf(recordsync.ESESSION, "closing browser: %v", cerr)
		}
	}()

	results = make([]*recordsync.ScrapeResult, 0, len(refs))
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			logger.Info("run canceled", "processed", len(results), "total", len(refs))
			return results, err
		}

		result := o.scrape(ctx, session, ref, logger)
		results = append(results, result)
		observe(Event{
			Type:      EventReference,
			Index:     i + 1,
			Total:     len(refs),
			Reference: ref,
			Result:    result,
		})
	}
	return results, nil
}

// scrape runs one reference through resolve and extract. A panic in either
// step is recorded as an extraction failure for this reference only.
func (o *Orchestrator) scrape(ctx context.Context, s recordsync.Session, ref recordsync.Reference, logger *slog.Logger) (result *recordsync.ScrapeResult) {
	logger = logger.With("reference", ref)
	status := recordsync.StatusPending
	advance := func(next recordsync.ScrapeStatus) {
		logger.Debug("status", "from", status.String(), "to", next.String())
		status = next
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("scrape panicked", "status", status.String(), "panic", p)
			result = &recordsync.ScrapeResult{
				Reference: ref,
				Status:    recordsync.StatusExtractionFailed,
				Err:       recordsync.Errorf(recordsync.EINTERNAL, "panic: %v", p),
			}
		}
	}()

	advance(recordsync.StatusResolving)
	url, err := o.Resolver.Resolve(ctx, s, string(ref))
	if err != nil {
		advance(recordsync.StatusNotFound)
		return &recordsync.ScrapeResult{Reference: ref, Status: status, Err: err}
	}
	advance(recordsync.StatusResolved)

	advance(recordsync.StatusExtracting)
	data, err := o.Extractor.Extract(ctx, s, url, ref)
	if err != nil {
		logger.Warn("extraction failed", "url", url, "err", err)
		advance(recordsync.StatusExtractionFailed)
		return &recordsync.ScrapeResult{Reference: ref, Status: status, Err: err}
	}
	advance(recordsync.StatusSuccess)
	return &recordsync.ScrapeResult{Reference: ref, Status: status, Data: data}
}
