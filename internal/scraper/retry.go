package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/metrics"
)

// Scraper runs one full attempt for a target.
type Scraper interface {
	Scrape(ctx context.Context, target FetchTarget) (string, error)
}

// Retrier wraps a Scraper with bounded retries and exponential backoff.
// Transient failures (timeouts, network errors, clean empty attempts) sleep
// baseDelay * 2^attempt and try again; everything else surfaces immediately.
type Retrier struct {
	scraper     Scraper
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier builds a Retrier. maxAttempts below 1 is treated as 1.
func NewRetrier(scraper Scraper, maxAttempts int, baseDelay time.Duration, logger *zap.Logger) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		scraper:     scraper,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Fetch attempts the target up to maxAttempts times and returns the first
// non-empty text. A clean empty attempt and retryable errors both count
// toward the budget; exhaustion returns ErrMaxRetries wrapping the last
// error, if any.
func (r *Retrier) Fetch(ctx context.Context, target FetchTarget) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.scraper.Scrape(ctx, target)
		switch {
		case err == nil && text != "":
			return text, nil
		case err == nil:
			// Possibly transient: the page may simply not have rendered.
			lastErr = nil
			r.logger.Debug("attempt produced no text",
				zap.String("url", target.URL), zap.Int("attempt", attempt+1))
		case IsRetryable(err):
			lastErr = err
			r.logger.Warn("retryable fetch failure",
				zap.String("url", target.URL),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		default:
			return "", err
		}

		if attempt == r.maxAttempts-1 {
			break
		}
		metrics.IncRetry()
		delay := r.baseDelay << uint(attempt)
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	if lastErr != nil {
		return "", WrapError(Classify(lastErr), target.URL, joinMaxRetries(lastErr))
	}
	return "", WrapError(KindUnexpected, target.URL, ErrMaxRetries)
}

func joinMaxRetries(err error) error {
	return &maxRetriesError{cause: err}
}

type maxRetriesError struct {
	cause error
}

func (e *maxRetriesError) Error() string {
	return ErrMaxRetries.Error() + ": " + e.cause.Error()
}

func (e *maxRetriesError) Unwrap() []error {
	return []error{ErrMaxRetries, e.cause}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
