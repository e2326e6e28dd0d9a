package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/mock"
	rsslog "github.com/fwojciec/recordsync/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("logs the resolved url", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Resolver{
			ResolveFn: func(_ context.Context, _ recordsync.Session, _ string) (string, error) {
				return "https://www.deejay.de/ABC123", nil
			},
		}

		r := rsslog.NewLoggingResolver(inner, logger)
		url, err := r.Resolve(context.Background(), &mock.Session{}, "ABC123")

		require.NoError(t, err)
		assert.Equal(t, "https://www.deejay.de/ABC123", url)
		output := buf.String()
		assert.Contains(t, output, "msg=resolve")
		assert.Contains(t, output, "reference=ABC123")
		assert.Contains(t, output, "url=https://www.deejay.de/ABC123")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs the error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Resolver{
			ResolveFn: func(_ context.Context, _ recordsync.Session, query string) (string, error) {
				return "", recordsync.Errorf(recordsync.ENOTFOUND, "no product found for %q", query)
			},
		}

		r := rsslog.NewLoggingResolver(inner, logger)
		_, err := r.Resolve(context.Background(), &mock.Session{}, "ZZZ999")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "code=not_found")
		assert.Contains(t, output, "ZZZ999")
	})
}

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("logs extracted counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(_ context.Context, _ recordsync.Session, _ string, _ recordsync.Reference) (*recordsync.ProductData, error) {
				return &recordsync.ProductData{
					Artist: "Artist",
					Title:  "Title",
					Tracks: []string{"A1", "B1"},
					Images: []recordsync.Asset{{Path: "image_1.jpg"}},
				}, nil
			},
		}

		e := rsslog.NewLoggingExtractor(inner, logger)
		_, err := e.Extract(context.Background(), &mock.Session{}, "https://www.deejay.de/x", "ABC123")

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "msg=extract")
		assert.Contains(t, output, `name=Artist***Title`)
		assert.Contains(t, output, "tracks=2")
		assert.Contains(t, output, "images=1")
		assert.Contains(t, output, "audio=0")
	})

	t.Run("logs failures without data", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(_ context.Context, _ recordsync.Session, _ string, _ recordsync.Reference) (*recordsync.ProductData, error) {
				return nil, errors.New("frame detached")
			},
		}

		e := rsslog.NewLoggingExtractor(inner, logger)
		_, err := e.Extract(context.Background(), &mock.Session{}, "https://www.deejay.de/x", "ABC123")

		require.Error(t, err)
		output := buf.String()
		assert.NotContains(t, output, "tracks=")
		assert.Contains(t, output, `err="frame detached"`)
	})
}

func TestLoggingDownloader_Download(t *testing.T) {
	t.Parallel()

	t.Run("logs at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Downloader{
			DownloadFn: func(_ context.Context, url, _, filename string) (*recordsync.Asset, error) {
				return &recordsync.Asset{URL: url, Path: filename, Bytes: 2048}, nil
			},
		}

		d := rsslog.NewLoggingDownloader(inner, logger)
		_, err := d.Download(context.Background(), "https://media.test/a1.mp3", "/tmp", "a1.mp3")

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=DEBUG")
		assert.Contains(t, output, "file=a1.mp3")
		assert.Contains(t, output, "bytes=2048")
	})

	t.Run("is silent at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Downloader{
			DownloadFn: func(_ context.Context, _, _, _ string) (*recordsync.Asset, error) {
				return nil, errors.New("boom")
			},
		}

		d := rsslog.NewLoggingDownloader(inner, logger)
		_, err := d.Download(context.Background(), "https://media.test/a1.mp3", "/tmp", "a1.mp3")

		require.Error(t, err)
		assert.Empty(t, buf.String())
	})
}
