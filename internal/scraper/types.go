// Package scraper defines the core fetch pipeline: shared types, the fetch
// strategy selector, and the retry controller.
package scraper

import (
	"context"
	"net/url"
	"strings"
)

// Strategy identifies how a page was (or should be) fetched.
type Strategy string

// Fetch strategies.
const (
	StrategyStatic  Strategy = "static"
	StrategyBrowser Strategy = "browser"
)

// Family tags URL domains with a specialized extraction path.
type Family string

// Known domain families.
const (
	FamilyGeneric        Family = ""
	FamilyGovernmentJobs Family = "governmentjobs"
)

// RecordKey identifies where a fetched description is filed.
type RecordKey struct {
	Year     int
	WeekDate string // MM-DD
	Index    int    // position in the record store ordering
	Title    string // title hint for the file slug
}

// FetchTarget identifies one URL to fetch and how its result is filed.
// Targets are immutable once created.
type FetchTarget struct {
	URL    string
	Family Family
	Key    RecordKey
}

// Domain returns the target's lowercased host with any www. prefix removed.
func (t FetchTarget) Domain() string {
	parsed, err := url.Parse(t.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// DetectFamily tags a URL with its domain family.
func DetectFamily(rawURL string) Family {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return FamilyGeneric
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "www.governmentjobs.com" || host == "governmentjobs.com" ||
		strings.HasSuffix(host, ".governmentjobs.com") {
		return FamilyGovernmentJobs
	}
	return FamilyGeneric
}

// FetchResult is the product of exactly one fetch attempt. It is consumed by
// the extractor and not retained afterwards.
type FetchResult struct {
	HTML     []byte
	Strategy Strategy
}

// Fetcher fetches a URL's raw HTML.
type Fetcher interface {
	Fetch(ctx context.Context, target FetchTarget) (FetchResult, error)
}

// Outcome is the tagged result of one full scrape attempt
// (fetch + extract + classify), pattern-matched by the retry controller.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// OutcomeKind enumerates the scrape attempt results.
type OutcomeKind int

// Outcome kinds.
const (
	// OutcomeSuccess carries non-empty extracted text.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeEmptyTransient means no text and no hard error; possibly a
	// temporary condition worth backing off and retrying.
	OutcomeEmptyTransient
	// OutcomeError carries an error classified by Kind().
	OutcomeError
)
