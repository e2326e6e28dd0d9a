// Package prometheus records run statistics with the Prometheus client and
// writes them in the node exporter textfile format, which suits a batch job
// that exits when the run is over.
package prometheus

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "recordsync"

// Ensure Metrics implements recordsync.RunMetrics at compile time.
var _ recordsync.RunMetrics = (*Metrics)(nil)

// Metrics holds the counters of one run in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	scrapes         *prometheus.CounterVec
	scrapeDuration  prometheus.Histogram
	downloads       *prometheus.CounterVec
	downloadedBytes *prometheus.CounterVec
	publishes       *prometheus.CounterVec
	images          *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

// NewMetrics creates a Metrics with its own registry. runID is attached to
// every series as a constant label when not empty.
func NewMetrics(runID string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{}
	if runID != "" {
		labels["run_id"] = runID
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scrapes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "scrapes_total",
			Help:        "References scraped, by terminal status.",
			ConstLabels: labels,
		}, []string{"status"}),
		scrapeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Name:        "scrape_duration_seconds",
			Help:        "Time spent resolving and extracting one reference.",
			ConstLabels: labels,
			Buckets:     []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		downloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "downloads_total",
			Help:        "Asset downloads, by kind and outcome.",
			ConstLabels: labels,
		}, []string{"kind", "outcome"}),
		downloadedBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "downloaded_bytes_total",
			Help:        "Bytes written to disk, by asset kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		publishes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "publishes_total",
			Help:        "Publish attempts, by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		images: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "images_total",
			Help:        "Local files considered for upload, by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the metrics were last written.",
			ConstLabels: labels,
		}),
	}
}

// Registry returns the registry holding the run's metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ScrapeDone records the terminal result of one reference.
func (m *Metrics) ScrapeDone(result *recordsync.ScrapeResult, elapsed time.Duration) {
	m.scrapes.WithLabelValues(statusLabel(result.Status)).Inc()
	m.scrapeDuration.Observe(elapsed.Seconds())
}

// PublishDone records a publish attempt.
func (m *Metrics) PublishDone(pub *recordsync.Publication, err error) {
	switch {
	case pub == nil:
		m.publishes.WithLabelValues("failed").Inc()
	case err != nil:
		m.publishes.WithLabelValues("incomplete").Inc()
	default:
		m.publishes.WithLabelValues("created").Inc()
	}
	if pub == nil {
		return
	}
	m.images.WithLabelValues("uploaded").Add(float64(len(pub.ImageIDs)))
	m.images.WithLabelValues("skipped").Add(float64(len(pub.Skipped)))
	m.images.WithLabelValues("failed").Add(float64(len(pub.Failed)))
}

// DownloadDone records one asset download.
func (m *Metrics) DownloadDone(filename string, asset *recordsync.Asset, err error) {
	kind := assetKind(filename)
	if err != nil {
		m.downloads.WithLabelValues(kind, recordsync.ErrorCode(err)).Inc()
		return
	}
	m.downloads.WithLabelValues(kind, "ok").Inc()
	m.downloadedBytes.WithLabelValues(kind).Add(float64(asset.Bytes))
}

// WriteTextfile writes every metric to filename in the textfile collector
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(filename string) error {
	m.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(filename, m.registry)
}

// Ensure Downloader implements recordsync.Downloader at compile time.
var _ recordsync.Downloader = (*Downloader)(nil)

// Downloader wraps a Downloader and counts its transfers.
type Downloader struct {
	next    recordsync.Downloader
	metrics *Metrics
}

// NewDownloader creates a new Downloader.
func NewDownloader(next recordsync.Downloader, metrics *Metrics) *Downloader {
	return &Downloader{next: next, metrics: metrics}
}

// Download delegates to the wrapped downloader and records the outcome.
func (d *Downloader) Download(ctx context.Context, url, dir, filename string) (*recordsync.Asset, error) {
	asset, err := d.next.Download(ctx, url, dir, filename)
	d.metrics.DownloadDone(filename, asset, err)
	return asset, err
}

func statusLabel(s recordsync.ScrapeStatus) string {
	return strings.ReplaceAll(s.String(), " ", "_")
}

func assetKind(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".mp3", ".wav", ".ogg", ".m4a", ".flac":
		return "audio"
	default:
		return "image"
	}
}
