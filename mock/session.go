package mock

import (
	"context"
	"time"

	"github.com/fwojciec/recordsync"
)

// Compile-time interface verification.
var (
	_ recordsync.Session  = (*Session)(nil)
	_ recordsync.Launcher = (*Launcher)(nil)
)

// Session is a mock implementation of recordsync.Session.
type Session struct {
	NavigateFn      func(ctx context.Context, url string) error
	SubmitFn        func(ctx context.Context, selector, text string) error
	EnterFrameFn    func(ctx context.Context, selector string) error
	LeaveFrameFn    func()
	WaitElementFn   func(ctx context.Context, selector string) error
	PropertyFn      func(ctx context.Context, selector, name string) (string, error)
	HTMLFn          func(ctx context.Context) (string, error)
	ClickFn         func(ctx context.Context, selector string, index int) error
	ClearRequestsFn func()
	AwaitRequestFn  func(ctx context.Context, match recordsync.RequestMatcher, settle time.Duration) (recordsync.ObservedRequest, bool, error)
	CloseFn         func() error
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.NavigateFn(ctx, url)
}

func (s *Session) Submit(ctx context.Context, selector, text string) error {
	return s.SubmitFn(ctx, selector, text)
}

func (s *Session) EnterFrame(ctx context.Context, selector string) error {
	return s.EnterFrameFn(ctx, selector)
}

func (s *Session) LeaveFrame() {
	s.LeaveFrameFn()
}

func (s *Session) WaitElement(ctx context.Context, selector string) error {
	return s.WaitElementFn(ctx, selector)
}

func (s *Session) Property(ctx context.Context, selector, name string) (string, error) {
	return s.PropertyFn(ctx, selector, name)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.HTMLFn(ctx)
}

func (s *Session) Click(ctx context.Context, selector string, index int) error {
	return s.ClickFn(ctx, selector, index)
}

func (s *Session) ClearRequests() {
	s.ClearRequestsFn()
}

func (s *Session) AwaitRequest(ctx context.Context, match recordsync.RequestMatcher, settle time.Duration) (recordsync.ObservedRequest, bool, error) {
	return s.AwaitRequestFn(ctx, match, settle)
}

func (s *Session) Close() error {
	return s.CloseFn()
}

// Launcher is a mock implementation of recordsync.Launcher.
type Launcher struct {
	LaunchFn func(ctx context.Context) (recordsync.Session, error)
}

func (l *Launcher) Launch(ctx context.Context) (recordsync.Session, error) {
	return l.LaunchFn(ctx)
}
