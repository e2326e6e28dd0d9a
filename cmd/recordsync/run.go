package main

import (
	"fmt"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/fs"
	rshttp "github.com/fwojciec/recordsync/http"
	"github.com/fwojciec/recordsync/pipeline"
	"github.com/fwojciec/recordsync/prestashop"
	"github.com/fwojciec/recordsync/prometheus"
	"github.com/fwojciec/recordsync/scrape"
	rsslog "github.com/fwojciec/recordsync/slog"
	"github.com/fwojciec/recordsync/storefront"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	lines, err := LoadLines(c.Lines, recordsync.DefaultCategories)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", recordsync.ErrorMessage(err))
		return err
	}
	if !c.NoPublish && (c.APIURL == "" || c.APIKey == "") {
		fmt.Fprintln(deps.Stderr, "Hint: set RECORDSYNC_API_URL and RECORDSYNC_API_KEY, or pass --no-publish")
		return recordsync.Errorf(recordsync.EINVALID, "webservice URL and key required")
	}

	fmt.Fprintf(deps.Stdout, "Run %s: %d references\n", deps.RunID, len(lines))
	for _, l := range lines {
		fmt.Fprintln(deps.Stdout, "  "+formatLine(l))
	}

	store := fs.NewStore(c.Dir)
	metrics := prometheus.NewMetrics(deps.RunID)

	coordinator := &pipeline.Coordinator{
		Scraper: newOrchestrator(deps, c.BrowserFlags, store, metrics),
		Metrics: metrics,
		Logger:  deps.Logger,
	}
	if !c.NoPublish {
		client := prestashop.NewClient(c.APIURL, c.APIKey)
		publisher := prestashop.NewPublisher(client, store,
			prestashop.WithLanguage(c.Lang),
			prestashop.WithUploadInterval(c.UploadInterval),
			prestashop.WithLogger(deps.Logger),
		)
		coordinator.Publisher = rsslog.NewLoggingPublisher(publisher, deps.Logger)
	}

	var summary *pipeline.Summary
	for e := range coordinator.Start(deps.Ctx, lines) {
		fmt.Fprintln(deps.Stdout, e.Message())
		if e.Type == pipeline.EventFinished {
			summary = e.Summary
		}
	}

	if c.MetricsFile != "" {
		if err := metrics.WriteTextfile(c.MetricsFile); err != nil {
			deps.Logger.Error("writing metrics failed", "path", c.MetricsFile, "err", err)
		}
	}

	return summary.Err
}

// newOrchestrator wires the storefront scraping stack.
func newOrchestrator(deps *Dependencies, f BrowserFlags, store recordsync.AssetStore, metrics *prometheus.Metrics) *scrape.Orchestrator {
	var downloader recordsync.Downloader = rshttp.NewDownloader(rshttp.WithRateLimit(f.DownloadRate))
	if metrics != nil {
		downloader = prometheus.NewDownloader(downloader, metrics)
	}
	downloader = rsslog.NewLoggingDownloader(downloader, deps.Logger)

	return &scrape.Orchestrator{
		Launcher: deps.launcher(f),
		Resolver: rsslog.NewLoggingResolver(&storefront.Resolver{
			BaseURL: f.Storefront,
			Logger:  deps.Logger,
		}, deps.Logger),
		Extractor: rsslog.NewLoggingExtractor(&storefront.Extractor{
			Downloader: downloader,
			Store:      store,
			Settle:     f.Settle,
			Logger:     deps.Logger,
		}, deps.Logger),
		Logger: deps.Logger,
	}
}
