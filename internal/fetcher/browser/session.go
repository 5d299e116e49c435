// Package browserfetcher fetches JavaScript-rendered pages with headless
// Chrome via chromedp.
package browserfetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/scraper"
)

// Config controls browser behavior.
type Config struct {
	UserAgent          string
	NavigationTimeout  time.Duration
	NetworkIdleTimeout time.Duration
	SettleDelay        time.Duration

	// ExecPath overrides the browser binary; empty uses chromedp's default
	// lookup.
	ExecPath string
}

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateRunning
	stateClosed
)

// Session owns a single headless browser for the life of a run. The browser
// is launched lazily on the first Fetch; each Fetch opens a fresh tab and
// closes it before returning. Close is terminal: a closed session never
// relaunches.
type Session struct {
	cfg    Config
	logger *zap.Logger

	mu            sync.Mutex
	state         sessionState
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewSession builds an unlaunched Session.
func NewSession(cfg Config, logger *zap.Logger) *Session {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.NetworkIdleTimeout <= 0 {
		cfg.NetworkIdleTimeout = 10 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	return &Session{cfg: cfg, logger: logger}
}

// Fetch renders the target in a new tab and returns the final DOM.
func (s *Session) Fetch(ctx context.Context, target scraper.FetchTarget) (scraper.FetchResult, error) {
	browserCtx, err := s.ensureRunning(target.URL)
	if err != nil {
		return scraper.FetchResult{}, err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	tabCtx, cancel := context.WithTimeout(tabCtx, s.cfg.NavigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	idle := newIdleWatcher()
	chromedp.ListenTarget(tabCtx, idle.handle)

	var html string
	runErr := chromedp.Run(tabCtx,
		s.setupAction(),
		chromedp.Navigate(target.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		s.dismissConsentAction(target.URL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return idle.waitIdle(ctx, s.cfg.NetworkIdleTimeout)
		}),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if runErr != nil {
		if err := ctx.Err(); err != nil {
			return scraper.FetchResult{}, scraper.WrapError(scraper.KindTimeout, target.URL,
				fmt.Errorf("browser fetch canceled: %w", err))
		}
		kind := scraper.KindNetwork
		if errors.Is(runErr, context.DeadlineExceeded) {
			kind = scraper.KindTimeout
		}
		return scraper.FetchResult{}, scraper.WrapError(kind, target.URL,
			fmt.Errorf("browser navigation: %w", runErr))
	}
	return scraper.FetchResult{HTML: []byte(html), Strategy: scraper.StrategyBrowser}, nil
}

// ensureRunning launches the browser on first use. A failed launch leaves
// the session uninitialized so a later call may try again; only an explicit
// Close is terminal. Callers decide whether to degrade to static fetching.
func (s *Session) ensureRunning(url string) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateRunning:
		return s.browserCtx, nil
	case stateClosed:
		return nil, scraper.WrapError(scraper.KindBrowserUnavailable, url, scraper.ErrBrowserUnavailable)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}
	if s.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, scraper.WrapError(scraper.KindBrowserUnavailable, url,
			fmt.Errorf("%w: launch failed: %v", scraper.ErrBrowserUnavailable, err))
	}

	s.logger.Info("headless browser launched")
	s.state = stateRunning
	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	return browserCtx, nil
}

// Close shuts the browser down. It is safe to call repeatedly and safe to
// call before the browser ever launched; shutdown errors are logged, not
// returned.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateRunning {
		s.browserCancel()
		s.allocCancel()
		s.browserCtx = nil
		s.browserCancel = nil
		s.allocCancel = nil
		s.logger.Info("headless browser closed")
	}
	s.state = stateClosed
}

func (s *Session) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if s.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// dismissConsentScript clicks the first visible cookie or consent button it
// can find. Job boards routinely cover the posting with these overlays.
const dismissConsentScript = `
(function() {
	try {
		const selectors = [
			"#onetrust-accept-btn-handler",
			"button[id*='accept']",
			"button[id*='consent']",
			"button[class*='accept']",
			"button[class*='consent']",
			".cookie-accept",
			".accept-all",
			"[data-consent='accept']",
			"[data-action='accept']",
		];
		for (const selector of selectors) {
			const elem = document.querySelector(selector);
			if (elem && elem.offsetParent !== null) {
				elem.click();
				return true;
			}
		}
	} catch (e) {}
	return false;
})();
`

func (s *Session) dismissConsentAction(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		if err := chromedp.Evaluate(dismissConsentScript, &clicked).Do(ctx); err != nil {
			// Overlay handling is best-effort.
			return nil
		}
		if clicked {
			s.logger.Debug("dismissed consent overlay", zap.String("url", url))
			_ = chromedp.Sleep(500 * time.Millisecond).Do(ctx)
		}
		return nil
	})
}

// idleWatcher tracks inflight document subresource requests so a fetch can
// wait for the page to stop loading before reading the DOM.
type idleWatcher struct {
	mu         sync.Mutex
	inflight   map[network.RequestID]struct{}
	lastChange time.Time
}

func newIdleWatcher() *idleWatcher {
	return &idleWatcher{
		inflight:   make(map[network.RequestID]struct{}),
		lastChange: time.Now(),
	}
}

func (w *idleWatcher) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		w.mu.Lock()
		w.inflight[e.RequestID] = struct{}{}
		w.lastChange = time.Now()
		w.mu.Unlock()
	case *network.EventLoadingFinished:
		w.remove(e.RequestID)
	case *network.EventLoadingFailed:
		w.remove(e.RequestID)
	}
}

func (w *idleWatcher) remove(id network.RequestID) {
	w.mu.Lock()
	delete(w.inflight, id)
	w.lastChange = time.Now()
	w.mu.Unlock()
}

// waitIdle blocks until the network has been quiet for quietWindow or the
// idle timeout lapses. Hitting the timeout is not an error; slow third-party
// beacons must not fail the fetch.
func (w *idleWatcher) waitIdle(ctx context.Context, timeout time.Duration) error {
	const quietWindow = 500 * time.Millisecond

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return nil
		}
		w.mu.Lock()
		quiet := len(w.inflight) == 0 && time.Since(w.lastChange) >= quietWindow
		w.mu.Unlock()
		if quiet {
			return nil
		}
	}
}
