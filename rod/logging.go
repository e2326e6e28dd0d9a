package rod

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/recordsync"
)

// Ensure LoggingSession implements recordsync.Session.
var _ recordsync.Session = (*LoggingSession)(nil)

// LoggingSession wraps a Session with debug logging of page interactions.
type LoggingSession struct {
	next   recordsync.Session
	logger *slog.Logger
}

// NewLoggingSession creates a new LoggingSession.
func NewLoggingSession(next recordsync.Session, logger *slog.Logger) *LoggingSession {
	return &LoggingSession{next: next, logger: logger}
}

// Navigate logs the URL being loaded and delegates to the wrapped session.
func (s *LoggingSession) Navigate(ctx context.Context, url string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("navigate",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Navigate(ctx, url)
}

// Submit delegates to the wrapped session.
func (s *LoggingSession) Submit(ctx context.Context, selector, text string) (err error) {
	defer func() {
		s.logger.Debug("submit", "selector", selector, "text", text, "err", err)
	}()
	return s.next.Submit(ctx, selector, text)
}

// EnterFrame delegates to the wrapped session.
func (s *LoggingSession) EnterFrame(ctx context.Context, selector string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("enter frame",
			"selector", selector,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.EnterFrame(ctx, selector)
}

// LeaveFrame delegates to the wrapped session.
func (s *LoggingSession) LeaveFrame() {
	s.next.LeaveFrame()
}

// WaitElement delegates to the wrapped session.
func (s *LoggingSession) WaitElement(ctx context.Context, selector string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("wait element",
			"selector", selector,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.WaitElement(ctx, selector)
}

// Property delegates to the wrapped session.
func (s *LoggingSession) Property(ctx context.Context, selector, name string) (string, error) {
	return s.next.Property(ctx, selector, name)
}

// HTML delegates to the wrapped session.
func (s *LoggingSession) HTML(ctx context.Context) (html string, err error) {
	defer func() {
		s.logger.Debug("html", "bytes", len(html), "err", err)
	}()
	return s.next.HTML(ctx)
}

// Click delegates to the wrapped session.
func (s *LoggingSession) Click(ctx context.Context, selector string, index int) (err error) {
	defer func() {
		s.logger.Debug("click", "selector", selector, "index", index, "err", err)
	}()
	return s.next.Click(ctx, selector, index)
}

// ClearRequests delegates to the wrapped session.
func (s *LoggingSession) ClearRequests() {
	s.next.ClearRequests()
}

// AwaitRequest logs the matched request, if any.
func (s *LoggingSession) AwaitRequest(ctx context.Context, match recordsync.RequestMatcher, settle time.Duration) (r recordsync.ObservedRequest, ok bool, err error) {
	defer func() {
		s.logger.Debug("await request",
			"settle", settle,
			"matched", ok,
			"url", r.URL,
			"err", err,
		)
	}()
	return s.next.AwaitRequest(ctx, match, settle)
}

// Close delegates to the wrapped session.
func (s *LoggingSession) Close() error {
	return s.next.Close()
}

// Ensure LoggingLauncher implements recordsync.Launcher.
var _ recordsync.Launcher = (*LoggingLauncher)(nil)

// LoggingLauncher wraps a Launcher so every launched session logs its interactions.
type LoggingLauncher struct {
	next   recordsync.Launcher
	logger *slog.Logger
}

// NewLoggingLauncher creates a new LoggingLauncher.
func NewLoggingLauncher(next recordsync.Launcher, logger *slog.Logger) *LoggingLauncher {
	return &LoggingLauncher{next: next, logger: logger}
}

// Launch logs the browser start and wraps the session.
func (l *LoggingLauncher) Launch(ctx context.Context) (s recordsync.Session, err error) {
	defer func(begin time.Time) {
		l.logger.Info("launch browser",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	s, err = l.next.Launch(ctx)
	if err != nil {
		return nil, err
	}
	return NewLoggingSession(s, l.logger), nil
}
