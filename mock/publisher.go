package mock

import (
	"context"

	"github.com/fwojciec/recordsync"
)

var _ recordsync.Publisher = (*Publisher)(nil)

// Publisher is a mock implementation of recordsync.Publisher.
type Publisher struct {
	PublishFn func(ctx context.Context, result *recordsync.ScrapeResult, line recordsync.CommercialLine) (*recordsync.Publication, error)
}

func (p *Publisher) Publish(ctx context.Context, result *recordsync.ScrapeResult, line recordsync.CommercialLine) (*recordsync.Publication, error) {
	return p.PublishFn(ctx, result, line)
}
