package rod

import (
	"context"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultElementTimeout bounds every wait for a page element.
const DefaultElementTimeout = 10 * time.Second

// DefaultNavigationTimeout bounds page navigation including the load event.
const DefaultNavigationTimeout = 30 * time.Second

// Ensure Launcher implements recordsync.Launcher at compile time.
var _ recordsync.Launcher = (*Launcher)(nil)

// Launcher starts headless Chrome sessions.
type Launcher struct {
	headless          bool
	elementTimeout    time.Duration
	navigationTimeout time.Duration
	bin               string
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithElementTimeout sets the bound for element waits.
// Defaults to DefaultElementTimeout if not specified.
func WithElementTimeout(d time.Duration) Option {
	return func(l *Launcher) {
		l.elementTimeout = d
	}
}

// WithNavigationTimeout sets the bound for page navigation.
// Defaults to DefaultNavigationTimeout if not specified.
func WithNavigationTimeout(d time.Duration) Option {
	return func(l *Launcher) {
		l.navigationTimeout = d
	}
}

// WithHeadless controls whether Chrome runs without a window. Defaults to true.
func WithHeadless(headless bool) Option {
	return func(l *Launcher) {
		l.headless = headless
	}
}

// WithBrowserBin sets the path of the Chrome binary. By default rod looks up
// a local installation or downloads one.
func WithBrowserBin(path string) Option {
	return func(l *Launcher) {
		l.bin = path
	}
}

// NewLauncher creates a new Launcher.
func NewLauncher(opts ...Option) *Launcher {
	l := &Launcher{
		headless:          true,
		elementTimeout:    DefaultElementTimeout,
		navigationTimeout: DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts Chrome and opens a Session on a fresh tab.
// Close must be called on the returned Session.
func (l *Launcher) Launch(ctx context.Context) (recordsync.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, recordsync.Errorf(recordsync.ESESSION, "launching browser: %v", err)
	}

	lnchr := launcher.New().
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1920,1080").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("autoplay-policy", "no-user-gesture-required").
		Leakless(true).
		Headless(l.headless)
	if l.bin != "" {
		lnchr = lnchr.Bin(l.bin)
	}

	u, err := lnchr.Context(ctx).Launch()
	if err != nil {
		return nil, recordsync.Errorf(recordsync.ESESSION, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, recordsync.Errorf(recordsync.ESESSION, "connecting to browser: %v", err)
	}

	s, err := newSession(browser, lnchr, l.elementTimeout, l.navigationTimeout)
	if err != nil {
		_ = browser.Close()
		lnchr.Kill()
		return nil, recordsync.Errorf(recordsync.ESESSION, "opening session: %v", err)
	}
	return s, nil
}
