// Package http provides the HTTP implementation of recordsync.Downloader,
// streaming remote media into per-reference folders.
package http

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/recordsync"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default timeout for a single download.
// Audio previews can be several megabytes, so it is longer than a page fetch.
const DefaultTimeout = 60 * time.Second

// DefaultChunkSize is the default buffer size used to copy response bodies.
const DefaultChunkSize = 32 * 1024

// Ensure Downloader implements recordsync.Downloader at compile time.
var _ recordsync.Downloader = (*Downloader)(nil)

// Downloader streams assets to disk using plain HTTP GET requests.
type Downloader struct {
	client    *http.Client
	timeout   time.Duration
	chunkSize int
	userAgent string
	rps       float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithTimeout sets the timeout for a single download.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(dl *Downloader) {
		dl.timeout = d
	}
}

// WithChunkSize sets the buffer size used to copy response bodies.
func WithChunkSize(n int) Option {
	return func(dl *Downloader) {
		dl.chunkSize = n
	}
}

// WithClient sets the HTTP client. The client is copied; the copy's timeout
// is set from WithTimeout.
func WithClient(c *http.Client) Option {
	return func(dl *Downloader) {
		dl.client = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(dl *Downloader) {
		dl.userAgent = ua
	}
}

// WithRateLimit limits requests to rps per host, with no bursting.
// Zero disables the limit, which is the default.
func WithRateLimit(rps float64) Option {
	return func(dl *Downloader) {
		dl.rps = rps
	}
}

// NewDownloader creates a new Downloader.
func NewDownloader(opts ...Option) *Downloader {
	dl := &Downloader{
		timeout:   DefaultTimeout,
		chunkSize: DefaultChunkSize,
		limiters:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(dl)
	}

	client := &http.Client{}
	if dl.client != nil {
		c := *dl.client
		client = &c
	}
	client.Timeout = dl.timeout
	dl.client = client
	if dl.chunkSize <= 0 {
		dl.chunkSize = DefaultChunkSize
	}

	return dl
}

// Download fetches url and writes the body to dir/filename.
func (d *Downloader) Download(ctx context.Context, url, dir, filename string) (*recordsync.Asset, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return nil, recordsync.Errorf(recordsync.EINVALID, "invalid file name %q", filename)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "building request for %s: %v", url, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	if err := d.wait(ctx, req.URL.Host); err != nil {
		return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "waiting to fetch %s: %v", url, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "HTTP %d for %s", resp.StatusCode, url)
	}

	// Remote errors and login walls come back as 200 with an HTML page.
	if isHTML(resp.Header.Get("Content-Type")) {
		return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "%s returned an HTML page instead of a file", url)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "creating %s: %v", dir, err)
	}

	asset, err := d.write(resp.Body, dir, filename)
	if err != nil {
		return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "writing %s: %v", filename, err)
	}
	asset.URL = url
	return asset, nil
}

// wait blocks until the per-host limit allows a request to host.
func (d *Downloader) wait(ctx context.Context, host string) error {
	if d.rps <= 0 {
		return nil
	}
	d.mu.Lock()
	limiter, ok := d.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[host] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

// write copies body into a temporary file and renames it into place once the
// transfer completed.
func (d *Downloader) write(body io.Reader, dir, filename string) (*recordsync.Asset, error) {
	tmp, err := os.CreateTemp(dir, "."+filename+".*.part")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()

	hash := xxhash.New()
	n, err := io.CopyBuffer(io.MultiWriter(tmp, hash), body, make([]byte, d.chunkSize))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	path := filepath.Join(dir, filename)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	return &recordsync.Asset{
		Path:     path,
		Bytes:    n,
		Checksum: fmt.Sprintf("%x", hash.Sum64()),
	}, nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html"
}
