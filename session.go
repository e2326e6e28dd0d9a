package recordsync

import (
	"context"
	"time"
)

// ObservedRequest is a network request seen by a Session that received a response.
type ObservedRequest struct {
	URL      string
	Status   int
	MIMEType string
	At       time.Time
}

// RequestMatcher selects observed requests.
type RequestMatcher func(ObservedRequest) bool

// Session is a controllable browser context driving the storefront.
// A Session is stateful and must not be used by more than one goroutine.
type Session interface {
	// Navigate loads url in the top-level frame.
	Navigate(ctx context.Context, url string) error

	// Submit types text into the control matched by selector and presses Enter.
	Submit(ctx context.Context, selector, text string) error

	// EnterFrame waits for the nested frame matched by selector and scopes
	// all subsequent queries to it.
	EnterFrame(ctx context.Context, selector string) error

	// LeaveFrame scopes queries back to the top-level frame.
	// It is safe to call when no frame was entered.
	LeaveFrame()

	// WaitElement waits, bounded by the session's element timeout, until
	// selector matches in the current frame.
	WaitElement(ctx context.Context, selector string) error

	// Property returns a DOM property (e.g. the absolute "href") of the
	// first element matching selector.
	Property(ctx context.Context, selector, name string) (string, error)

	// HTML returns the markup of the current frame.
	HTML(ctx context.Context) (string, error)

	// Click simulates a user click on the index-th element matching selector.
	Click(ctx context.Context, selector string, index int) error

	// ClearRequests forgets every request observed so far.
	ClearRequests()

	// AwaitRequest waits for settle and returns the most recent request
	// observed since the last ClearRequests that satisfies match.
	// The boolean is false when nothing matched.
	AwaitRequest(ctx context.Context, match RequestMatcher, settle time.Duration) (ObservedRequest, bool, error)

	// Close releases the browser. Close is safe to call multiple times.
	Close() error
}

// Launcher creates browser sessions.
type Launcher interface {
	// Launch starts a new Session. Returns ESESSION on failure.
	Launch(ctx context.Context) (Session, error)
}
