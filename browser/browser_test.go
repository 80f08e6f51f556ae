package browser

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"art-arbitrage/config"
	"art-arbitrage/utils"
)

// harness wires a Manager to fakes so no real browser is launched.
type harness struct {
	m      *Manager
	opened int32
	closed int32
	run    func(call int) error

	calls int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{}
	h.m = NewManager(&config.Config{Headless: true}, utils.NewLogger(false))

	// Pre-seed a live "browser" so Acquire never launches a real one.
	bctx, bcancel := context.WithCancel(context.Background())
	h.m.browserCtx = bctx
	h.m.cancelBrowser = bcancel
	h.m.cancelAlloc = func() {}
	t.Cleanup(bcancel)

	h.m.newPage = func(parent context.Context) (context.Context, context.CancelFunc) {
		atomic.AddInt32(&h.opened, 1)
		ctx, cancel := context.WithCancel(parent)
		var once int32
		return ctx, func() {
			if atomic.CompareAndSwapInt32(&once, 0, 1) {
				atomic.AddInt32(&h.closed, 1)
			}
			cancel()
		}
	}
	h.m.run = func(ctx context.Context, actions ...chromedp.Action) error {
		call := int(atomic.AddInt32(&h.calls, 1))
		if h.run != nil {
			return h.run(call)
		}
		return nil
	}

	return h
}

func (h *harness) fetch() error {
	atomic.StoreInt32(&h.calls, 0)
	_, err := h.m.FetchRendered(context.Background(), "https://example.com/lots", ".lot", time.Second)
	return err
}

// Run call order inside FetchRendered: 1 navigate, 2 wait-hint, 3 settle, 4 capture.

func TestFetchRenderedSuccessClosesPage(t *testing.T) {
	h := newHarness(t)

	if err := h.fetch(); err != nil {
		t.Fatalf("FetchRendered: %v", err)
	}
	if h.opened != 1 || h.closed != 1 {
		t.Errorf("page accounting: opened=%d closed=%d", h.opened, h.closed)
	}
}

func TestFetchRenderedHintTimeoutIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.run = func(call int) error {
		if call == 2 {
			return context.DeadlineExceeded
		}
		return nil
	}

	if err := h.fetch(); err != nil {
		t.Fatalf("a missing wait hint must not fail the fetch: %v", err)
	}
	if h.opened != 1 || h.closed != 1 {
		t.Errorf("page accounting: opened=%d closed=%d", h.opened, h.closed)
	}
}

func TestFetchRenderedNavigationTimeout(t *testing.T) {
	h := newHarness(t)
	h.run = func(call int) error {
		if call == 1 {
			return context.DeadlineExceeded
		}
		return nil
	}

	err := h.fetch()
	if !errors.Is(err, ErrNavigationTimeout) {
		t.Fatalf("expected ErrNavigationTimeout, got %v", err)
	}
	if h.opened != 1 || h.closed != 1 {
		t.Errorf("page must close on timeout: opened=%d closed=%d", h.opened, h.closed)
	}
}

func TestFetchRenderedNavigationError(t *testing.T) {
	h := newHarness(t)
	h.run = func(call int) error {
		if call == 1 {
			return errors.New("net::ERR_CONNECTION_REFUSED")
		}
		return nil
	}

	err := h.fetch()
	if err == nil {
		t.Fatal("expected navigation error")
	}
	if errors.Is(err, ErrNavigationTimeout) {
		t.Errorf("plain navigation errors must not be typed as timeouts: %v", err)
	}
	if h.opened != 1 || h.closed != 1 {
		t.Errorf("page must close on error: opened=%d closed=%d", h.opened, h.closed)
	}
}

func TestPageAccountingAcrossMixedFetches(t *testing.T) {
	h := newHarness(t)

	scenarios := []func(call int) error{
		nil, // success
		func(call int) error {
			if call == 2 {
				return context.DeadlineExceeded
			}
			return nil
		},
		func(call int) error { return errors.New("boom") },
		nil,
		func(call int) error {
			if call == 1 {
				return context.DeadlineExceeded
			}
			return nil
		},
	}

	for _, sc := range scenarios {
		h.run = sc
		_ = h.fetch()
	}

	if h.opened != int32(len(scenarios)) || h.opened != h.closed {
		t.Errorf("page close calls must equal page open calls: opened=%d closed=%d",
			h.opened, h.closed)
	}
}

func TestAcquireReusesLiveBrowser(t *testing.T) {
	h := newHarness(t)

	a, err := h.m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	b, err := h.m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if a != b {
		t.Error("a live browser context must be reused, not relaunched")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	h := newHarness(t)

	h.m.Shutdown()
	if h.m.browserCtx != nil {
		t.Error("browser context should be cleared after shutdown")
	}

	// Again, and once more with no browser ever launched.
	h.m.Shutdown()
	NewManager(&config.Config{}, utils.NewLogger(false)).Shutdown()
}
