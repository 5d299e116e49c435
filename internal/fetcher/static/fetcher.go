// Package staticfetcher fetches pages over plain HTTP using gocolly.
package staticfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/scraper"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements scraper.Fetcher with a Colly collector. The base
// collector is cloned per fetch so hooks never leak between requests.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled HTTP transport.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	// The policy gate handles robots.txt before a fetch is attempted, so
	// the collector must not fetch robots.txt a second time.
	c.IgnoreRobotsTxt = true
	return &Fetcher{cfg: cfg, baseCollector: c}
}

// Fetch executes a single HTTP GET and returns the response body.
func (f *Fetcher) Fetch(ctx context.Context, target scraper.FetchTarget) (scraper.FetchResult, error) {
	var (
		body     []byte
		status   int
		fetchErr error
	)

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := runCollector(ctx, collector, target.URL, &fetchErr, &status); err != nil {
		return scraper.FetchResult{}, err
	}
	if status != http.StatusOK {
		return scraper.FetchResult{}, scraper.WrapError(scraper.KindNetwork, target.URL,
			fmt.Errorf("%w: %d", scraper.ErrHTTPStatus, status))
	}
	return scraper.FetchResult{HTML: body, Strategy: scraper.StrategyStatic}, nil
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error, status *int) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return scraper.WrapError(scraper.KindTimeout, url,
			fmt.Errorf("static fetch canceled: %w", ctx.Err()))
	case err := <-done:
		if err != nil {
			return wrapVisitError(url, err, *status)
		}
		if *fetchErr != nil {
			return wrapVisitError(url, *fetchErr, *status)
		}
		return nil
	}
}

func wrapVisitError(url string, err error, status int) error {
	kind := scraper.KindNetwork
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = scraper.KindTimeout
	}
	if status >= 400 {
		err = fmt.Errorf("%w: %d: %v", scraper.ErrHTTPStatus, status, err)
	}
	return scraper.WrapError(kind, url, err)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
