package rod

import (
	"sync"

	"github.com/fwojciec/recordsync"
)

// RequestLog records network requests that received a response, in the
// order the responses were observed. RequestLog is safe for concurrent use.
type RequestLog struct {
	mu       sync.Mutex
	requests []recordsync.ObservedRequest
}

// Add appends an observed request.
func (l *RequestLog) Add(r recordsync.ObservedRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, r)
}

// Clear forgets every recorded request.
func (l *RequestLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = nil
}

// Len returns the number of recorded requests.
func (l *RequestLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// Last returns the most recently recorded request satisfying match.
func (l *RequestLog) Last(match recordsync.RequestMatcher) (recordsync.ObservedRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.requests) - 1; i >= 0; i-- {
		if match == nil || match(l.requests[i]) {
			return l.requests[i], true
		}
	}
	return recordsync.ObservedRequest{}, false
}
