package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind classifies scrape failures for retry and escalation decisions.
type ErrorKind int

// Error kinds, from most to least retryable.
const (
	KindUnexpected ErrorKind = iota
	KindTimeout
	KindNetwork
	KindExtractionEmpty
	KindQualityRejected
	KindStorage
	KindBrowserUnavailable
	KindDisallowed
)

// String implements fmt.Stringer for log fields.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindExtractionEmpty:
		return "extraction-empty"
	case KindQualityRejected:
		return "quality-rejected"
	case KindStorage:
		return "storage"
	case KindBrowserUnavailable:
		return "browser-unavailable"
	case KindDisallowed:
		return "disallowed"
	default:
		return "unexpected"
	}
}

// Sentinel errors surfaced by the pipeline.
var (
	// ErrMaxRetries reports attempt exhaustion without a terminal error.
	ErrMaxRetries = errors.New("max retries exceeded")
	// ErrBrowserUnavailable reports a failed browser launch or a closed session.
	ErrBrowserUnavailable = errors.New("browser unavailable")
	// ErrQualityRejected reports content classified as generic boilerplate.
	ErrQualityRejected = errors.New("content rejected as generic")
	// ErrDisallowed reports a robots.txt denial for the target URL.
	ErrDisallowed = errors.New("fetch disallowed by domain policy")
	// ErrHTTPStatus wraps non-success HTTP responses.
	ErrHTTPStatus = errors.New("unexpected http status")
)

// Error annotates a failure with its kind and the URL being processed.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

// WrapError builds an *Error; a nil inner error yields nil.
func WrapError(kind ErrorKind, rawURL string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, URL: rawURL, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify derives an ErrorKind from an arbitrary error, preferring explicit
// *Error annotations and falling back to net-level inspection.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnexpected
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	switch {
	case errors.Is(err, ErrMaxRetries):
		return KindNetwork
	case errors.Is(err, ErrBrowserUnavailable):
		return KindBrowserUnavailable
	case errors.Is(err, ErrQualityRejected):
		return KindQualityRejected
	case errors.Is(err, ErrDisallowed):
		return KindDisallowed
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetwork
	}
	if errors.Is(err, ErrHTTPStatus) {
		return KindNetwork
	}

	return KindUnexpected
}

// IsRetryable reports whether the retry controller should back off and try
// again rather than abort.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}
