package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/recordsync"
	rshttp "github.com/fwojciec/recordsync/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_Download(t *testing.T) {
	t.Parallel()

	t.Run("writes body to destination folder", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3-fake-mp3-bytes"))
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "ABC123")
		dl := rshttp.NewDownloader()

		asset, err := dl.Download(context.Background(), server.URL+"/a.mp3", dir, "a.mp3")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "a.mp3"), asset.Path)
		assert.Equal(t, int64(len("ID3-fake-mp3-bytes")), asset.Bytes)
		assert.NotEmpty(t, asset.Checksum)
		assert.Equal(t, server.URL+"/a.mp3", asset.URL)

		content, err := os.ReadFile(asset.Path)
		require.NoError(t, err)
		assert.Equal(t, "ID3-fake-mp3-bytes", string(content))
	})

	t.Run("streams bodies larger than the chunk size", func(t *testing.T) {
		t.Parallel()

		body := strings.Repeat("x", 10_000)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte(body))
		}))
		defer server.Close()

		dir := t.TempDir()
		dl := rshttp.NewDownloader(rshttp.WithChunkSize(1024))

		asset, err := dl.Download(context.Background(), server.URL, dir, "image_1.jpg")

		require.NoError(t, err)
		assert.Equal(t, int64(len(body)), asset.Bytes)
	})

	t.Run("rejects HTML response even with status 200", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>Please log in</body></html>"))
		}))
		defer server.Close()

		dir := t.TempDir()
		dl := rshttp.NewDownloader()

		asset, err := dl.Download(context.Background(), server.URL, dir, "a.mp3")

		require.Error(t, err)
		assert.Nil(t, asset)
		assert.Equal(t, recordsync.EDOWNLOAD, recordsync.ErrorCode(err))
		assert.Contains(t, recordsync.ErrorMessage(err), "HTML")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("returns error for non-2xx status codes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "missing")
		dl := rshttp.NewDownloader()

		_, err := dl.Download(context.Background(), server.URL, dir, "a.mp3")

		require.Error(t, err)
		assert.Equal(t, recordsync.EDOWNLOAD, recordsync.ErrorCode(err))
		assert.Contains(t, recordsync.ErrorMessage(err), "404")
		_, statErr := os.Stat(filepath.Join(dir, "a.mp3"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("creates destination folder idempotently", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "REF")
		dl := rshttp.NewDownloader()

		_, err := dl.Download(context.Background(), server.URL, dir, "image_1.jpg")
		require.NoError(t, err)
		_, err = dl.Download(context.Background(), server.URL, dir, "image_2.jpg")
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("returns error for non-existent host", func(t *testing.T) {
		t.Parallel()

		dl := rshttp.NewDownloader(rshttp.WithTimeout(100 * time.Millisecond))

		_, err := dl.Download(context.Background(), "http://non-existent-host.invalid/a.mp3", t.TempDir(), "a.mp3")

		require.Error(t, err)
		assert.Equal(t, recordsync.EDOWNLOAD, recordsync.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := rshttp.NewDownloader().Download(ctx, server.URL, t.TempDir(), "a.mp3")

		require.Error(t, err)
	})

	t.Run("rejects file names containing a path", func(t *testing.T) {
		t.Parallel()

		_, err := rshttp.NewDownloader().Download(context.Background(), "http://example.com", t.TempDir(), "../a.mp3")

		require.Error(t, err)
		assert.Equal(t, recordsync.EINVALID, recordsync.ErrorCode(err))
	})

	t.Run("leaves the caller's client untouched", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		client := &http.Client{Timeout: 5 * time.Second}
		dl := rshttp.NewDownloader(rshttp.WithClient(client), rshttp.WithTimeout(time.Second))

		_, err := dl.Download(context.Background(), server.URL, t.TempDir(), "image_1.jpg")

		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.Timeout)
	})

	t.Run("spaces requests to the same host", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var hits []time.Time
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits = append(hits, time.Now())
			mu.Unlock()
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		dir := t.TempDir()
		dl := rshttp.NewDownloader(rshttp.WithRateLimit(10))

		for _, name := range []string{"image_1.jpg", "image_2.jpg", "image_3.jpg"} {
			_, err := dl.Download(context.Background(), server.URL, dir, name)
			require.NoError(t, err)
		}

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, hits, 3)
		assert.GreaterOrEqual(t, hits[2].Sub(hits[0]), 150*time.Millisecond)
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("x"))
		}))
		defer server.Close()

		dl := rshttp.NewDownloader(rshttp.WithUserAgent("recordsync-test"))
		_, err := dl.Download(context.Background(), server.URL, t.TempDir(), "a.mp3")

		require.NoError(t, err)
		assert.Equal(t, "recordsync-test", got)
	})
}

// Compile-time verification that Downloader implements recordsync.Downloader
var _ recordsync.Downloader = (*rshttp.Downloader)(nil)
