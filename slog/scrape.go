// Package slog decorates recordsync services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/recordsync"
)

// Ensure the decorators implement their interfaces.
var (
	_ recordsync.Resolver   = (*LoggingResolver)(nil)
	_ recordsync.Extractor  = (*LoggingExtractor)(nil)
	_ recordsync.Downloader = (*LoggingDownloader)(nil)
)

// LoggingResolver wraps a Resolver with logging.
type LoggingResolver struct {
	next   recordsync.Resolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next recordsync.Resolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the lookup.
func (r *LoggingResolver) Resolve(ctx context.Context, s recordsync.Session, query string) (url string, err error) {
	defer func(begin time.Time) {
		r.logger.Info("resolve",
			"reference", query,
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Resolve(ctx, s, query)
}

// LoggingExtractor wraps an Extractor with logging.
type LoggingExtractor struct {
	next   recordsync.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next recordsync.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs what was found.
func (e *LoggingExtractor) Extract(ctx context.Context, s recordsync.Session, productURL string, ref recordsync.Reference) (data *recordsync.ProductData, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"reference", ref,
			"url", productURL,
			"duration", time.Since(begin),
		}
		if data != nil {
			attrs = append(attrs,
				"name", data.Name(),
				"tracks", len(data.Tracks),
				"images", len(data.Images),
				"audio", len(data.Audio),
			)
		}
		attrs = append(attrs, "err", err)
		e.logger.Info("extract", attrs...)
	}(time.Now())
	return e.next.Extract(ctx, s, productURL, ref)
}

// LoggingDownloader wraps a Downloader with debug logging.
type LoggingDownloader struct {
	next   recordsync.Downloader
	logger *slog.Logger
}

// NewLoggingDownloader creates a new LoggingDownloader.
func NewLoggingDownloader(next recordsync.Downloader, logger *slog.Logger) *LoggingDownloader {
	return &LoggingDownloader{next: next, logger: logger}
}

// Download delegates to the wrapped downloader and logs the transfer.
func (d *LoggingDownloader) Download(ctx context.Context, url, dir, filename string) (asset *recordsync.Asset, err error) {
	defer func(begin time.Time) {
		var size int64
		if asset != nil {
			size = asset.Bytes
		}
		d.logger.Debug("download",
			"url", url,
			"file", filename,
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Download(ctx, url, dir, filename)
}
