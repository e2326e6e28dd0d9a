package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/rod"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	RunID  string

	// Launcher, when set, is used instead of NewLauncher.
	Launcher    recordsync.Launcher
	NewLauncher func(BrowserFlags) recordsync.Launcher
}

// launcher returns the session launcher for f, with logging.
func (d *Dependencies) launcher(f BrowserFlags) recordsync.Launcher {
	l := d.Launcher
	if l == nil {
		l = d.NewLauncher(f)
	}
	return rod.NewLoggingLauncher(l, d.Logger)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log every browser step and download"`

	Run        RunCmd        `cmd:"" help:"Scrape the references of a lines file and publish them"`
	Scrape     ScrapeCmd     `cmd:"" help:"Scrape references without publishing"`
	Categories CategoriesCmd `cmd:"" help:"List the category labels accepted in lines files"`
}

// BrowserFlags configure the storefront session.
type BrowserFlags struct {
	Storefront   string        `default:"https://www.deejay.de" help:"Storefront root URL"`
	Dir          string        `short:"d" default:"." help:"Directory holding one folder per reference"`
	Settle       time.Duration `default:"3s" help:"Wait for the audio request after clicking play"`
	Timeout      time.Duration `short:"t" default:"10s" help:"Wait for page elements"`
	DownloadRate float64       `default:"2" help:"Asset downloads per second per host (0 = unlimited)"`
	Show         bool          `help:"Show the browser window"`
	Chrome       string        `type:"path" help:"Chrome binary (default: detected or downloaded)"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Lines string `arg:"" help:"YAML file listing reference, price, weight, quantity and category"`

	BrowserFlags `embed:""`

	APIURL         string        `name:"api-url" env:"RECORDSYNC_API_URL" help:"PrestaShop webservice URL, e.g. https://shop.example/api"`
	APIKey         string        `name:"api-key" env:"RECORDSYNC_API_KEY" help:"PrestaShop webservice key"`
	Lang           string        `default:"1" help:"Language id of the localized product fields"`
	UploadInterval time.Duration `default:"300ms" help:"Pause between image uploads"`
	NoPublish      bool          `help:"Scrape only"`
	MetricsFile    string        `type:"path" help:"Write run metrics to this file in Prometheus textfile format"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	References []string `arg:"" help:"Catalog references"`

	BrowserFlags `embed:""`
}

// CategoriesCmd is the "categories" subcommand.
type CategoriesCmd struct{}
