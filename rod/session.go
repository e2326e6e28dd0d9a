// Package rod implements recordsync.Session with Chrome browser automation.
package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Session implements recordsync.Session at compile time.
var _ recordsync.Session = (*Session)(nil)

// Session drives a single browser tab. All queries run against the top-level
// document unless a nested frame was entered.
//
// Session is not safe for concurrent use; the request log is the only part
// written from rod's event goroutine.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	frame    *rod.Page

	elementTimeout    time.Duration
	navigationTimeout time.Duration

	requests   *RequestLog
	stopEvents context.CancelFunc
	eventsDone chan struct{}
	closeOnce  sync.Once
	closeErr   error
	closed     atomic.Bool
}

// newSession opens a page on browser and starts recording network responses.
func newSession(browser *rod.Browser, l *launcher.Launcher, elementTimeout, navigationTimeout time.Duration) (*Session, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("enabling network events: %w", err)
	}

	s := &Session{
		browser:           browser,
		launcher:          l,
		page:              page,
		elementTimeout:    elementTimeout,
		navigationTimeout: navigationTimeout,
		requests:          &RequestLog{},
		eventsDone:        make(chan struct{}),
	}

	evCtx, cancel := context.WithCancel(context.Background())
	s.stopEvents = cancel
	wait := page.Context(evCtx).EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Response == nil {
			return
		}
		s.requests.Add(recordsync.ObservedRequest{
			URL:      e.Response.URL,
			Status:   e.Response.Status,
			MIMEType: e.Response.MIMEType,
			At:       time.Now(),
		})
	})
	go func() {
		defer close(s.eventsDone)
		wait()
	}()

	return s, nil
}

// scope returns the page queries should run against.
func (s *Session) scope(ctx context.Context) *rod.Page {
	if s.frame != nil {
		return s.frame.Context(ctx)
	}
	return s.page.Context(ctx)
}

func (s *Session) checkOpen() error {
	if s.closed.Load() {
		return recordsync.Errorf(recordsync.ESESSION, "session is closed")
	}
	return nil
}

// Navigate loads url in the top-level frame and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.frame = nil

	page := s.page.Context(ctx).Timeout(s.navigationTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", url, err)
	}
	return nil
}

// Submit types text into the element matched by selector and presses Enter.
func (s *Session) Submit(ctx context.Context, selector, text string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	el, err := s.scope(ctx).Timeout(s.elementTimeout).Element(selector)
	if err != nil {
		return notFound(selector, err)
	}
	el = el.CancelTimeout()
	if err := el.Input(text); err != nil {
		return fmt.Errorf("typing into %s: %w", selector, err)
	}
	if err := el.Type(input.Enter); err != nil {
		return fmt.Errorf("submitting %s: %w", selector, err)
	}
	return nil
}

// EnterFrame waits for the frame element matched by selector and switches into it.
func (s *Session) EnterFrame(ctx context.Context, selector string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	el, err := s.scope(ctx).Timeout(s.elementTimeout).Element(selector)
	if err != nil {
		return notFound(selector, err)
	}
	frame, err := el.CancelTimeout().Frame()
	if err != nil {
		return fmt.Errorf("entering frame %s: %w", selector, err)
	}
	s.frame = frame
	return nil
}

// LeaveFrame switches back to the top-level document.
func (s *Session) LeaveFrame() {
	s.frame = nil
}

// WaitElement waits until selector matches in the current frame.
func (s *Session) WaitElement(ctx context.Context, selector string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.scope(ctx).Timeout(s.elementTimeout).Element(selector); err != nil {
		return notFound(selector, err)
	}
	return nil
}

// Property returns a DOM property of the first element matching selector.
func (s *Session) Property(ctx context.Context, selector, name string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	el, err := s.scope(ctx).Timeout(s.elementTimeout).Element(selector)
	if err != nil {
		return "", notFound(selector, err)
	}
	v, err := el.CancelTimeout().Property(name)
	if err != nil {
		return "", fmt.Errorf("reading %s of %s: %w", name, selector, err)
	}
	if v.Nil() {
		return "", recordsync.Errorf(recordsync.ENOTFOUND, "%s has no %s", selector, name)
	}
	return v.Str(), nil
}

// HTML returns the markup of the current frame.
func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	return s.scope(ctx).HTML()
}

// Click simulates a user click on the index-th element matching selector.
// The click is dispatched from script so overlays cannot intercept it.
func (s *Session) Click(ctx context.Context, selector string, index int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	els, err := s.scope(ctx).Elements(selector)
	if err != nil {
		return fmt.Errorf("querying %s: %w", selector, err)
	}
	if index < 0 || index >= len(els) {
		return recordsync.Errorf(recordsync.ENOTFOUND, "%s has no element at index %d", selector, index)
	}
	if _, err := els[index].Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("clicking %s[%d]: %w", selector, index, err)
	}
	return nil
}

// ClearRequests forgets every request observed so far.
func (s *Session) ClearRequests() {
	s.requests.Clear()
}

// AwaitRequest waits for settle, then returns the most recent observed
// request that satisfies match.
func (s *Session) AwaitRequest(ctx context.Context, match recordsync.RequestMatcher, settle time.Duration) (recordsync.ObservedRequest, bool, error) {
	if err := s.checkOpen(); err != nil {
		return recordsync.ObservedRequest{}, false, err
	}

	timer := time.NewTimer(settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return recordsync.ObservedRequest{}, false, ctx.Err()
	case <-timer.C:
	}

	r, ok := s.requests.Last(match)
	return r, ok, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.stopEvents()
		<-s.eventsDone
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
		}
	})
	return s.closeErr
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (s *Session) LauncherPID() int {
	if s.launcher == nil {
		return 0
	}
	return s.launcher.PID()
}

func notFound(selector string, err error) error {
	return recordsync.Errorf(recordsync.ENOTFOUND, "%s not found: %v", selector, err)
}
