// Package policy gates fetches: per-domain robots.txt decisions, the global
// politeness throttle, and the excluded-employer domain list.
package policy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// Decision is one cached per-domain verdict.
type Decision struct {
	Domain    string
	Group     *robotstxt.Group
	FetchedAt time.Time
}

// RobotsGate enforces robots.txt directives, caching one decision per domain
// for the lifetime of a run. The cache is lazily populated on first lookup
// and safe for concurrent use.
type RobotsGate struct {
	client    *http.Client
	cache     sync.Map // domain -> *Decision
	userAgent string
	logger    *zap.Logger
}

// Gate answers whether a URL may be fetched.
type Gate interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// NewRobotsGate builds a Gate. When respect is false it returns a gate that
// allows everything, preserving the ability to reproduce runs made before
// the robots gate existed.
func NewRobotsGate(respect bool, userAgent string, logger *zap.Logger) Gate {
	if !respect {
		logger.Warn("robots.txt checking disabled; all domains allowed")
		return allowAllGate{}
	}
	return &RobotsGate{
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Allowed implements Gate. Fetch or parse failures err on the side of
// allowing access, matching the research-scraper posture: a broken robots.txt
// should not silently drop records.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	decision, err := g.load(ctx, parsed)
	if err != nil {
		g.logger.Warn("robots fetch failed; allowing access",
			zap.String("host", parsed.Host), zap.Error(err))
		return true
	}
	if decision.Group == nil {
		return true
	}
	return decision.Group.Test(parsed.Path)
}

func (g *RobotsGate) load(ctx context.Context, parsed *url.URL) (*Decision, error) {
	domain := strings.ToLower(parsed.Host)
	if cached, ok := g.cache.Load(domain); ok {
		decision, assertOK := cached.(*Decision)
		if !assertOK {
			return nil, fmt.Errorf("robots cache type mismatch: %T", cached)
		}
		return decision, nil
	}

	group, err := g.fetchGroup(ctx, parsed)
	if err != nil {
		// Cache the allow-all verdict so a dead host costs one lookup per
		// run, not one per attempt.
		g.logger.Warn("robots fetch failed; allowing domain for this run",
			zap.String("domain", domain), zap.Error(err))
		group = nil
	}

	decision := &Decision{
		Domain:    domain,
		Group:     group,
		FetchedAt: time.Now(),
	}
	g.cache.Store(domain, decision)
	return decision, nil
}

func (g *RobotsGate) fetchGroup(ctx context.Context, parsed *url.URL) (*robotstxt.Group, error) {
	robotsURL := url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Debug("close robots response body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data.FindGroup(g.userAgent), nil
}

type allowAllGate struct{}

func (allowAllGate) Allowed(context.Context, string) bool { return true }
