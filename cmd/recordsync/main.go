package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/rod"
	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Launcher starts browser sessions. When nil a headless Chrome launcher
	// is built from the command's flags.
	Launcher recordsync.Launcher

	// NewRunID returns the id attached to the run's logs and metrics.
	NewRunID func() string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		NewRunID: uuid.NewString,
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("recordsync"),
		kong.Description("Scrape record references from the storefront and publish them to a PrestaShop catalog"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'recordsync --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.RunID = m.NewRunID()
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", deps.RunID)

	deps.Launcher = m.Launcher
	if deps.Launcher == nil {
		deps.NewLauncher = func(f BrowserFlags) recordsync.Launcher {
			return rod.NewLauncher(
				rod.WithElementTimeout(f.Timeout),
				rod.WithHeadless(!f.Show),
				rod.WithBrowserBin(f.Chrome),
			)
		}
	}

	return kongCtx.Run(deps)
}
