package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/metrics"
)

// Gate answers whether a URL may be fetched at all.
type Gate interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// Throttle spaces out network operations.
type Throttle interface {
	Wait(ctx context.Context) error
}

// Extractor turns raw HTML into combined document text.
type Extractor func(target FetchTarget, html []byte) (string, error)

// Classifier decides whether extracted text is generic boilerplate.
type Classifier func(text string) (generic bool, reason string)

// SelectorConfig controls strategy choice.
type SelectorConfig struct {
	// JSRequiredDomains are routed straight to the browser fetcher.
	JSRequiredDomains []string
}

// Selector chooses between static and browser fetching per target, extracts
// and classifies the result, and escalates static fetches to the browser
// when the static result is empty or boilerplate. It carries the only
// per-run mutable strategy state: domains where static fetching has failed,
// and whether the browser has been written off for the run.
type Selector struct {
	static   Fetcher
	browser  Fetcher
	gate     Gate
	throttle Throttle
	extract  Extractor
	classify Classifier
	logger   *zap.Logger

	jsRequired map[string]bool

	mu           sync.Mutex
	staticFailed map[string]bool
	browserDown  bool
}

// NewSelector wires a Selector. browser may be nil, in which case every
// fetch is static-only. gate and throttle must be non-nil.
func NewSelector(
	static Fetcher,
	browser Fetcher,
	gate Gate,
	throttle Throttle,
	extract Extractor,
	classify Classifier,
	cfg SelectorConfig,
	logger *zap.Logger,
) *Selector {
	jsRequired := make(map[string]bool, len(cfg.JSRequiredDomains))
	for _, d := range cfg.JSRequiredDomains {
		jsRequired[strings.TrimPrefix(strings.ToLower(d), "www.")] = true
	}
	return &Selector{
		static:       static,
		browser:      browser,
		gate:         gate,
		throttle:     throttle,
		extract:      extract,
		classify:     classify,
		logger:       logger,
		jsRequired:   jsRequired,
		staticFailed: make(map[string]bool),
	}
}

// Scrape runs one full attempt for the target: fetch, extract, classify,
// with at most one static-to-browser escalation. It returns non-empty text
// on success, ("", nil) for a clean miss the caller may retry, or an error.
func (s *Selector) Scrape(ctx context.Context, target FetchTarget) (string, error) {
	if !s.gate.Allowed(ctx, target.URL) {
		return "", WrapError(KindDisallowed, target.URL, ErrDisallowed)
	}

	result, err := s.selectAndFetch(ctx, target)
	if err != nil {
		return "", err
	}

	text, err := s.extractText(target, result)
	if err != nil {
		if !errors.Is(err, ErrQualityRejected) && Classify(err) != KindExtractionEmpty {
			return "", err
		}
		// Empty or boilerplate output. A static fetch gets one shot at the
		// browser before the attempt is written off.
		if result.Strategy != StrategyStatic || !s.browserAvailable() {
			s.logger.Info("extraction yielded no usable text",
				zap.String("url", target.URL),
				zap.String("strategy", string(result.Strategy)),
				zap.String("reason", err.Error()))
			return "", nil
		}
		s.logger.Info("escalating to browser fetch",
			zap.String("url", target.URL), zap.String("reason", err.Error()))
		return s.scrapeWithBrowser(ctx, target)
	}
	return text, nil
}

// selectAndFetch picks the strategy and performs exactly one fetch, falling
// back from static to browser within the same attempt on a static error.
func (s *Selector) selectAndFetch(ctx context.Context, target FetchTarget) (FetchResult, error) {
	domain := target.Domain()

	if s.wantBrowser(domain) {
		result, err := s.fetchBrowser(ctx, target)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrBrowserUnavailable) {
			return FetchResult{}, err
		}
		// Browser gone for the run; degrade to static.
	}

	result, err := s.fetchStatic(ctx, target)
	if err == nil {
		return result, nil
	}

	s.markStaticFailed(domain)
	if !s.browserAvailable() {
		return FetchResult{}, err
	}
	s.logger.Info("static fetch failed; falling back to browser",
		zap.String("url", target.URL), zap.Error(err))

	browserResult, browserErr := s.fetchBrowser(ctx, target)
	if browserErr != nil {
		// Report the original static failure; the fallback was best-effort.
		return FetchResult{}, err
	}
	return browserResult, nil
}

// scrapeWithBrowser performs the single quality-driven escalation.
func (s *Selector) scrapeWithBrowser(ctx context.Context, target FetchTarget) (string, error) {
	result, err := s.fetchBrowser(ctx, target)
	if err != nil {
		if errors.Is(err, ErrBrowserUnavailable) {
			return "", nil
		}
		return "", err
	}
	text, err := s.extractText(target, result)
	if err != nil {
		if errors.Is(err, ErrQualityRejected) || Classify(err) == KindExtractionEmpty {
			s.logger.Info("browser escalation still produced no usable text",
				zap.String("url", target.URL))
			return "", nil
		}
		return "", err
	}
	return text, nil
}

// extractText dispatches to the family extractor and applies the quality
// classifier.
func (s *Selector) extractText(target FetchTarget, result FetchResult) (string, error) {
	text, err := s.extract(target, result.HTML)
	if err != nil {
		return "", WrapError(KindExtractionEmpty, target.URL, err)
	}
	if generic, reason := s.classify(text); generic {
		metrics.IncQualityRejected()
		s.logger.Info("content classified as generic",
			zap.String("url", target.URL),
			zap.String("strategy", string(result.Strategy)),
			zap.String("reason", reason))
		return "", WrapError(KindQualityRejected, target.URL,
			fmt.Errorf("%w: %s", ErrQualityRejected, reason))
	}
	return text, nil
}

func (s *Selector) fetchStatic(ctx context.Context, target FetchTarget) (FetchResult, error) {
	if err := s.throttle.Wait(ctx); err != nil {
		return FetchResult{}, fmt.Errorf("throttle before static fetch: %w", err)
	}
	start := time.Now()
	result, err := s.static.Fetch(ctx, target)
	metrics.ObserveFetch(string(StrategyStatic), fetchOutcome(err), time.Since(start))
	if err != nil {
		return FetchResult{}, err
	}
	result.Strategy = StrategyStatic
	return result, nil
}

func (s *Selector) fetchBrowser(ctx context.Context, target FetchTarget) (FetchResult, error) {
	if s.browser == nil || !s.browserAvailable() {
		return FetchResult{}, WrapError(KindBrowserUnavailable, target.URL, ErrBrowserUnavailable)
	}
	if err := s.throttle.Wait(ctx); err != nil {
		return FetchResult{}, fmt.Errorf("throttle before browser fetch: %w", err)
	}
	start := time.Now()
	result, err := s.browser.Fetch(ctx, target)
	metrics.ObserveFetch(string(StrategyBrowser), fetchOutcome(err), time.Since(start))
	if err != nil {
		if errors.Is(err, ErrBrowserUnavailable) {
			s.markBrowserDown(target.URL, err)
		}
		return FetchResult{}, err
	}
	result.Strategy = StrategyBrowser
	return result, nil
}

func (s *Selector) wantBrowser(domain string) bool {
	if !s.browserAvailable() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jsRequired[domain] || s.staticFailed[domain]
}

func (s *Selector) browserAvailable() bool {
	if s.browser == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.browserDown
}

func (s *Selector) markStaticFailed(domain string) {
	if domain == "" {
		return
	}
	s.mu.Lock()
	s.staticFailed[domain] = true
	s.mu.Unlock()
}

func (s *Selector) markBrowserDown(url string, err error) {
	s.mu.Lock()
	already := s.browserDown
	s.browserDown = true
	s.mu.Unlock()
	if !already {
		s.logger.Warn("browser unavailable; static-only for the rest of the run",
			zap.String("url", url), zap.Error(err))
	}
}

func fetchOutcome(err error) string {
	if err == nil {
		return "success"
	}
	return Classify(err).String()
}
