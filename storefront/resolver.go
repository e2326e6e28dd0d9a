package storefront

import (
	"context"
	"log/slog"

	"github.com/fwojciec/recordsync"
)

// Ensure Resolver implements recordsync.Resolver at compile time.
var _ recordsync.Resolver = (*Resolver)(nil)

// Resolver searches the storefront and returns the first product link.
type Resolver struct {
	// BaseURL is the storefront root. Defaults to DefaultBaseURL.
	BaseURL string

	Logger *slog.Logger
}

// Resolve submits query to the storefront search and returns the absolute
// URL of the first result. Every lookup failure is reported as ENOTFOUND
// with the cause logged; only context cancellation is returned as is.
// The session is always back in the top-level frame on return.
func (r *Resolver) Resolve(ctx context.Context, s recordsync.Session, query string) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = discardLogger()
	}
	baseURL := r.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	defer s.LeaveFrame()

	url, err := r.firstResult(ctx, s, baseURL, query)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Info("no product found", "query", query, "cause", err)
		return "", recordsync.Errorf(recordsync.ENOTFOUND, "no product found for %q", query)
	}
	return url, nil
}

func (r *Resolver) firstResult(ctx context.Context, s recordsync.Session, baseURL, query string) (string, error) {
	if err := s.Navigate(ctx, baseURL); err != nil {
		return "", err
	}
	if err := s.Submit(ctx, SearchSelector, query); err != nil {
		return "", err
	}
	if err := s.EnterFrame(ctx, FrameSelector); err != nil {
		return "", err
	}
	if err := s.WaitElement(ctx, FirstResultSelector); err != nil {
		return "", err
	}
	url, err := s.Property(ctx, FirstResultSelector, "href")
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", recordsync.Errorf(recordsync.ENOTFOUND, "first result has an empty link")
	}
	return url, nil
}
