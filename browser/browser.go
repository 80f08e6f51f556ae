package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"art-arbitrage/config"
	"art-arbitrage/utils"
)

// ErrNavigationTimeout is returned when a rendered fetch exceeds its
// navigation deadline. Callers treat it as a per-source failure.
var ErrNavigationTimeout = errors.New("browser: navigation timed out")

const (
	// hintWait bounds the best-effort wait for a content hint selector.
	hintWait = 5 * time.Second
	// settleDelay lets late-arriving content render before capture.
	settleDelay = 1500 * time.Millisecond
)

// Manager owns at most one live headless browser and hands out scoped
// pages for rendered fetches. The browser is launched lazily on first use
// and reused across concurrent callers; each caller gets its own page.
type Manager struct {
	cfg    *config.Config
	logger *utils.Logger

	mu            sync.Mutex
	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc

	// Swapped for fakes in tests.
	newPage func(parent context.Context) (context.Context, context.CancelFunc)
	run     func(ctx context.Context, actions ...chromedp.Action) error
}

// NewManager creates a Manager. No browser is launched until the first
// rendered fetch needs one.
func NewManager(cfg *config.Config, logger *utils.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger,
		newPage: func(parent context.Context) (context.Context, context.CancelFunc) {
			return chromedp.NewContext(parent)
		},
		run: chromedp.Run,
	}
}

// Acquire returns a live browser context, launching a new browser if none
// exists or the existing one has disconnected. Safe for concurrent use.
func (m *Manager) Acquire() (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browserCtx != nil && m.browserCtx.Err() == nil {
		return m.browserCtx, nil
	}

	if m.browserCtx != nil {
		m.logger.Warn("[browser] Browser disconnected — relaunching")
		m.teardownLocked()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findChromeBinary(m.cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
		m.logger.Debug("[browser] Using browser binary: %s", bin)
	}

	m.allocCtx, m.cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	m.browserCtx, m.cancelBrowser = chromedp.NewContext(m.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// Force the browser process to start now so a launch failure surfaces
	// here instead of inside the first page.
	if err := m.run(m.browserCtx); err != nil {
		m.teardownLocked()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	m.logger.Info("[browser] Headless browser launched")
	return m.browserCtx, nil
}

// FetchRendered opens a scoped page, navigates to url with a bounded
// timeout, optionally waits for waitHint to become visible (best effort),
// lets late content settle, and returns the rendered document. The page is
// closed on every exit path.
func (m *Manager) FetchRendered(ctx context.Context, url, waitHint string, timeout time.Duration) (string, error) {
	parent, err := m.Acquire()
	if err != nil {
		return "", err
	}

	pageCtx, cancelPage := m.newPage(parent)
	defer cancelPage()

	navCtx, cancelNav := context.WithTimeout(pageCtx, timeout)
	defer cancelNav()

	if err := m.run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		// Respect the caller's deadline too.
		if ctx.Err() != nil {
			return "", fmt.Errorf("browser: navigate %s: %w", url, ctx.Err())
		}
		return "", fmt.Errorf("browser: navigate %s: %w", url, err)
	}

	if waitHint != "" {
		hintCtx, cancelHint := context.WithTimeout(pageCtx, hintWait)
		if err := m.run(hintCtx, chromedp.WaitVisible(waitHint, chromedp.ByQuery)); err != nil {
			// A missing hint is not an error; the page may render without it.
			m.logger.Debug("[browser] Wait hint %q not seen for %s: %v", waitHint, url, err)
		}
		cancelHint()
	}

	if err := m.run(navCtx, chromedp.Sleep(settleDelay)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		return "", fmt.Errorf("browser: settle %s: %w", url, err)
	}

	var html string
	if err := m.run(navCtx, chromedp.OuterHTML("html", &html)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		return "", fmt.Errorf("browser: capture %s: %w", url, err)
	}

	return html, nil
}

// Shutdown closes the shared browser. Idempotent; safe to call when no
// browser was ever launched.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browserCtx == nil {
		return
	}
	m.teardownLocked()
	m.logger.Info("[browser] Headless browser shut down")
}

func (m *Manager) teardownLocked() {
	if m.cancelBrowser != nil {
		m.cancelBrowser()
	}
	if m.cancelAlloc != nil {
		m.cancelAlloc()
	}
	m.browserCtx = nil
	m.cancelBrowser = nil
	m.allocCtx = nil
	m.cancelAlloc = nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
