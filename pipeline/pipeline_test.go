package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/mock"
	"github.com/fwojciec/recordsync/pipeline"
	"github.com/fwojciec/recordsync/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orchestrator(known ...string) *scrape.Orchestrator {
	return &scrape.Orchestrator{
		Launcher: &mock.Launcher{
			LaunchFn: func(_ context.Context) (recordsync.Session, error) {
				return &mock.Session{CloseFn: func() error { return nil }}, nil
			},
		},
		Resolver: &mock.Resolver{
			ResolveFn: func(_ context.Context, _ recordsync.Session, query string) (string, error) {
				for _, k := range known {
					if k == query {
						return "https://www.deejay.de/" + query, nil
					}
				}
				return "", recordsync.Errorf(recordsync.ENOTFOUND, "no product found for %q", query)
			},
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(_ context.Context, _ recordsync.Session, productURL string, ref recordsync.Reference) (*recordsync.ProductData, error) {
				return &recordsync.ProductData{URL: productURL, Artist: "Artist", Title: string(ref)}, nil
			},
		},
	}
}

func line(ref recordsync.Reference, category string) recordsync.CommercialLine {
	return recordsync.CommercialLine{Reference: ref, Price: 10, Weight: 0.3, Quantity: 2, Category: category}
}

// recordingPublisher records what it was asked to publish.
type recordingPublisher struct {
	mu    sync.Mutex
	calls []recordsync.CommercialLine
	fail  map[recordsync.Reference]bool
}

func (p *recordingPublisher) publisher() *mock.Publisher {
	return &mock.Publisher{
		PublishFn: func(_ context.Context, result *recordsync.ScrapeResult, l recordsync.CommercialLine) (*recordsync.Publication, error) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.calls = append(p.calls, l)
			if p.fail[result.Reference] {
				return nil, recordsync.Errorf(recordsync.EREMOTE, "POST /products: HTTP 500")
			}
			return &recordsync.Publication{Reference: result.Reference, ProductID: "42", ImageIDs: []string{"7"}}, nil
		},
	}
}

type recordingMetrics struct {
	scraped   []recordsync.ScrapeStatus
	published int
	failed    int
}

func (m *recordingMetrics) ScrapeDone(result *recordsync.ScrapeResult, _ time.Duration) {
	m.scraped = append(m.scraped, result.Status)
}

func (m *recordingMetrics) PublishDone(_ *recordsync.Publication, err error) {
	if err != nil {
		m.failed++
		return
	}
	m.published++
}

func TestCoordinator_Start(t *testing.T) {
	t.Parallel()

	t.Run("publishes only successful references", func(t *testing.T) {
		t.Parallel()

		rec := &recordingPublisher{}
		metrics := &recordingMetrics{}
		c := &pipeline.Coordinator{
			Scraper:   orchestrator("ABC123"),
			Publisher: rec.publisher(),
			Metrics:   metrics,
		}

		var events []pipeline.Event
		for e := range c.Start(context.Background(), []recordsync.CommercialLine{
			line("ABC123", "House / Deep House"),
			line("ZZZ999", "Techno"),
		}) {
			events = append(events, e)
		}

		require.Len(t, events, 4)
		assert.Equal(t, pipeline.EventScraped, events[0].Type)
		assert.Equal(t, "[1/2] ABC123: success", events[0].Message())
		assert.Equal(t, pipeline.EventPublished, events[1].Type)
		assert.Equal(t, "ABC123: published as product 42 (1 images)", events[1].Message())
		assert.Equal(t, pipeline.EventScraped, events[2].Type)
		assert.Equal(t, "[2/2] ZZZ999: not found", events[2].Message())
		assert.Equal(t, pipeline.EventFinished, events[3].Type)

		require.Len(t, rec.calls, 1)
		assert.Equal(t, recordsync.Reference("ABC123"), rec.calls[0].Reference)
		assert.Equal(t, "House / Deep House", rec.calls[0].Category)

		s := events[3].Summary
		require.NotNil(t, s)
		require.NoError(t, s.Err)
		assert.Equal(t, 2, s.Total)
		assert.Equal(t, 1, s.Counts[recordsync.StatusSuccess])
		assert.Equal(t, 1, s.Counts[recordsync.StatusNotFound])
		assert.Equal(t, 1, s.Published)
		require.Len(t, s.Results, 2)
		assert.Equal(t, recordsync.StatusSuccess, s.Results[0].Status)
		assert.Equal(t, recordsync.StatusNotFound, s.Results[1].Status)

		assert.Equal(t, []recordsync.ScrapeStatus{recordsync.StatusSuccess, recordsync.StatusNotFound}, metrics.scraped)
		assert.Equal(t, 1, metrics.published)
	})

	t.Run("a failed publish does not stop the run", func(t *testing.T) {
		t.Parallel()

		rec := &recordingPublisher{fail: map[recordsync.Reference]bool{"A1": true}}
		c := &pipeline.Coordinator{
			Scraper:   orchestrator("A1", "B2"),
			Publisher: rec.publisher(),
		}

		s := c.Run(context.Background(), []recordsync.CommercialLine{
			line("A1", "Techno"),
			line("B2", "Techno"),
		}, nil)

		require.NotNil(t, s)
		assert.Len(t, rec.calls, 2)
		assert.Equal(t, 1, s.Published)
		assert.Equal(t, 1, s.PublishFailed)
		require.Len(t, s.Publications, 1)
		assert.Equal(t, recordsync.Reference("B2"), s.Publications[0].Reference)
	})

	t.Run("scrapes only without a publisher", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Coordinator{Scraper: orchestrator("A1")}

		var types []pipeline.EventType
		s := c.Run(context.Background(), []recordsync.CommercialLine{line("A1", "Acid")}, func(e pipeline.Event) {
			types = append(types, e.Type)
		})

		require.NotNil(t, s)
		assert.Equal(t, []pipeline.EventType{pipeline.EventScraped}, types)
		assert.Equal(t, 0, s.Published)
		assert.Equal(t, 1, s.Counts[recordsync.StatusSuccess])
	})

	t.Run("reports session faults", func(t *testing.T) {
		t.Parallel()

		o := orchestrator()
		o.Launcher = &mock.Launcher{
			LaunchFn: func(_ context.Context) (recordsync.Session, error) {
				return nil, errors.New("chrome not found")
			},
		}
		c := &pipeline.Coordinator{Scraper: o}

		s := c.Run(context.Background(), []recordsync.CommercialLine{line("A1", "Acid")}, nil)

		require.NotNil(t, s)
		assert.Equal(t, recordsync.ESESSION, recordsync.ErrorCode(s.Err))
		assert.Contains(t, s.Message(), "Run failed")
	})

	t.Run("rejects a reference listed twice", func(t *testing.T) {
		t.Parallel()

		var launched bool
		o := orchestrator("A1")
		o.Launcher = &mock.Launcher{
			LaunchFn: func(_ context.Context) (recordsync.Session, error) {
				launched = true
				return &mock.Session{CloseFn: func() error { return nil }}, nil
			},
		}
		rec := &recordingPublisher{}
		c := &pipeline.Coordinator{Scraper: o, Publisher: rec.publisher()}

		var types []pipeline.EventType
		s := c.Run(context.Background(), []recordsync.CommercialLine{
			line("A1", "Techno"),
			line("B2", "Acid"),
			line("A1", "Acid"),
		}, func(e pipeline.Event) {
			types = append(types, e.Type)
		})

		require.NotNil(t, s)
		assert.Equal(t, recordsync.EINVALID, recordsync.ErrorCode(s.Err))
		assert.Equal(t, "reference A1 listed twice", recordsync.ErrorMessage(s.Err))
		assert.False(t, launched)
		assert.Empty(t, types)
		assert.Empty(t, rec.calls)
		assert.Equal(t, 3, s.Total)
		assert.Contains(t, s.Message(), "Run failed: reference A1 listed twice")
	})
}

func TestSummary_Message(t *testing.T) {
	t.Parallel()

	s := &pipeline.Summary{
		Total: 4,
		Counts: map[recordsync.ScrapeStatus]int{
			recordsync.StatusSuccess:          2,
			recordsync.StatusNotFound:         1,
			recordsync.StatusExtractionFailed: 1,
		},
		Published:     1,
		PublishFailed: 1,
		Duration:      90 * time.Second,
	}

	assert.Equal(t, "2/4 scraped, 1 not found, 1 failed, 1 published, 1 publish errors in 1m30s", s.Message())
}
