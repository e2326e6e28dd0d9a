package prometheus_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/mock"
	"github.com/fwojciec/recordsync/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textfile(t *testing.T, m *prometheus.Metrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recordsync.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("counts scrape results by status", func(t *testing.T) {
		t.Parallel()

		m := prometheus.NewMetrics("run-1")
		m.ScrapeDone(&recordsync.ScrapeResult{Status: recordsync.StatusSuccess}, 3*time.Second)
		m.ScrapeDone(&recordsync.ScrapeResult{Status: recordsync.StatusNotFound}, time.Second)
		m.ScrapeDone(&recordsync.ScrapeResult{Status: recordsync.StatusNotFound}, time.Second)

		out := textfile(t, m)

		assert.Contains(t, out, `recordsync_scrapes_total{run_id="run-1",status="success"} 1`)
		assert.Contains(t, out, `recordsync_scrapes_total{run_id="run-1",status="not_found"} 2`)
		assert.Contains(t, out, `recordsync_scrape_duration_seconds_count{run_id="run-1"} 3`)
		assert.Contains(t, out, "recordsync_last_run_timestamp_seconds")
	})

	t.Run("counts publish outcomes and images", func(t *testing.T) {
		t.Parallel()

		m := prometheus.NewMetrics("")
		m.PublishDone(&recordsync.Publication{ProductID: "42", ImageIDs: []string{"1", "2"}, Skipped: []string{"a1.mp3"}}, nil)
		m.PublishDone(&recordsync.Publication{ProductID: "43"}, errors.New("stock"))
		m.PublishDone(nil, errors.New("create"))

		out := textfile(t, m)

		assert.Contains(t, out, `recordsync_publishes_total{outcome="created"} 1`)
		assert.Contains(t, out, `recordsync_publishes_total{outcome="incomplete"} 1`)
		assert.Contains(t, out, `recordsync_publishes_total{outcome="failed"} 1`)
		assert.Contains(t, out, `recordsync_images_total{outcome="uploaded"} 2`)
		assert.Contains(t, out, `recordsync_images_total{outcome="skipped"} 1`)
	})
}

func TestDownloader_Download(t *testing.T) {
	t.Parallel()

	m := prometheus.NewMetrics("")
	inner := &mock.Downloader{
		DownloadFn: func(_ context.Context, url, dir, filename string) (*recordsync.Asset, error) {
			if filename == "image_2.jpg" {
				return nil, recordsync.Errorf(recordsync.EDOWNLOAD, "%s returned an HTML page instead of a file", url)
			}
			return &recordsync.Asset{URL: url, Path: filepath.Join(dir, filename), Bytes: 1024}, nil
		},
	}
	d := prometheus.NewDownloader(inner, m)

	_, err := d.Download(context.Background(), "https://cdn.test/1.jpg", "/data", "image_1.jpg")
	require.NoError(t, err)
	_, err = d.Download(context.Background(), "https://cdn.test/2.jpg", "/data", "image_2.jpg")
	require.Error(t, err)
	_, err = d.Download(context.Background(), "https://cdn.test/a1.mp3", "/data", "a1.mp3")
	require.NoError(t, err)

	out := textfile(t, m)

	assert.Contains(t, out, `recordsync_downloads_total{kind="image",outcome="ok"} 1`)
	assert.Contains(t, out, `recordsync_downloads_total{kind="image",outcome="download_failed"} 1`)
	assert.Contains(t, out, `recordsync_downloads_total{kind="audio",outcome="ok"} 1`)
	assert.Contains(t, out, `recordsync_downloaded_bytes_total{kind="audio"} 1024`)
	assert.Contains(t, out, `recordsync_downloaded_bytes_total{kind="image"} 1024`)
}
