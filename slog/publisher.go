package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/recordsync"
)

// Ensure LoggingPublisher implements recordsync.Publisher.
var _ recordsync.Publisher = (*LoggingPublisher)(nil)

// LoggingPublisher wraps a Publisher with logging.
type LoggingPublisher struct {
	next   recordsync.Publisher
	logger *slog.Logger
}

// NewLoggingPublisher creates a new LoggingPublisher.
func NewLoggingPublisher(next recordsync.Publisher, logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{next: next, logger: logger}
}

// Publish delegates to the wrapped publisher and logs the outcome.
func (p *LoggingPublisher) Publish(ctx context.Context, result *recordsync.ScrapeResult, line recordsync.CommercialLine) (pub *recordsync.Publication, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"reference", line.Reference,
			"category", line.Category,
			"duration", time.Since(begin),
		}
		if pub != nil {
			attrs = append(attrs,
				"product_id", pub.ProductID,
				"images", len(pub.ImageIDs),
				"skipped", len(pub.Skipped),
				"failed", len(pub.Failed),
			)
		}
		attrs = append(attrs, "err", err)
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelError
		}
		p.logger.Log(ctx, level, "publish", attrs...)
	}(time.Now())
	return p.next.Publish(ctx, result, line)
}
