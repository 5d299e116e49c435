// Package pipeline drives checkpointed batch runs over the record store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/metrics"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/policy"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/scraper"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/store"
)

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"

	previewLen = 500
)

// Fetcher retrieves the full description text for one target.
type Fetcher interface {
	Fetch(ctx context.Context, target scraper.FetchTarget) (string, error)
}

// Config controls batch behavior.
type Config struct {
	// BatchSize is the number of processed records between durable flushes.
	BatchSize int
}

// Summary reports one finished (or interrupted) run.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Completed bool
}

// SuccessRate is succeeded over attempted (skips excluded).
func (s Summary) SuccessRate() float64 {
	attempted := s.Succeeded + s.Failed
	if attempted == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(attempted)
}

// Runner walks the record store in order, scraping each unscraped record and
// persisting progress so an interrupted run resumes where it stopped.
type Runner struct {
	cfg          Config
	records      *store.RecordStore
	checkpoint   *store.CheckpointFile
	descriptions *store.Descriptions
	fetcher      Fetcher
	logger       *zap.Logger
	progress     *Progress

	// now is swappable in tests.
	now func() time.Time
}

// NewRunner wires a Runner. BatchSize below 1 defaults to 100.
func NewRunner(
	cfg Config,
	records *store.RecordStore,
	checkpoint *store.CheckpointFile,
	descriptions *store.Descriptions,
	fetcher Fetcher,
	logger *zap.Logger,
) *Runner {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	return &Runner{
		cfg:          cfg,
		records:      records,
		checkpoint:   checkpoint,
		descriptions: descriptions,
		fetcher:      fetcher,
		logger:       logger,
		progress:     &Progress{},
		now:          time.Now,
	}
}

// Progress exposes the live run view for the status server.
func (r *Runner) Progress() *Progress { return r.progress }

// Run processes records from the checkpoint position to the end of the
// store. Cancellation flushes what finished and keeps the checkpoint so the
// next run resumes; a run that reaches the end clears the checkpoint.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	cp, exists, err := r.checkpoint.Load()
	if err != nil {
		return Summary{}, fmt.Errorf("load checkpoint: %w", err)
	}
	start := 0
	if exists {
		start = cp.LastCompletedIndex + 1
		r.logger.Info("resuming from checkpoint",
			zap.String("run_id", cp.RunID),
			zap.Int("last_completed_row", cp.LastCompletedIndex))
	} else {
		cp = store.Checkpoint{
			LastCompletedIndex: -1,
			RunID:              uuid.NewString(),
			StartTime:          r.now(),
		}
	}

	total := r.records.Len()
	r.progress.begin(cp.RunID, cp.StartTime, total, start)
	seq := r.weekSequences()

	var summary Summary
	sinceFlush := 0
	for i := start; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return summary, r.interrupt(cp, err)
		}

		outcome := r.processRecord(ctx, i, seq)
		if ctx.Err() != nil && outcome == outcomeFailed {
			// The failure was the cancellation itself; do not count the
			// record as completed.
			return summary, r.interrupt(cp, ctx.Err())
		}

		summary.Processed++
		switch outcome {
		case outcomeSucceeded:
			summary.Succeeded++
		case outcomeFailed:
			summary.Failed++
		case outcomeSkipped:
			summary.Skipped++
		}
		r.progress.record(outcome)
		metrics.ObserveRecord(outcome)

		cp.LastCompletedIndex = i
		sinceFlush++
		if sinceFlush >= r.cfg.BatchSize {
			if err := r.flush(cp); err != nil {
				return summary, err
			}
			sinceFlush = 0
		}
	}

	if err := r.records.Flush(); err != nil {
		return summary, fmt.Errorf("final dataset flush: %w", err)
	}
	if err := r.checkpoint.Clear(); err != nil {
		return summary, fmt.Errorf("clear checkpoint: %w", err)
	}
	summary.Completed = true
	r.logger.Info("run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Float64("success_rate", summary.SuccessRate()))
	return summary, nil
}

// processRecord handles one row and reports its outcome.
func (r *Runner) processRecord(ctx context.Context, i int, seq map[string]int) string {
	rec := r.records.At(i)

	if skip, reason := skipReason(rec); skip {
		r.logger.Debug("skipping record",
			zap.Int("row", i), zap.String("reason", reason))
		return outcomeSkipped
	}

	target := scraper.FetchTarget{
		URL:    rec.Link,
		Family: scraper.DetectFamily(rec.Link),
		Key: scraper.RecordKey{
			Year:     rec.Year,
			WeekDate: rec.Date,
			Index:    i,
			Title:    rec.JobTitle,
		},
	}

	text, err := r.fetcher.Fetch(ctx, target)
	if err != nil {
		r.logger.Warn("record failed",
			zap.Int("row", i),
			zap.String("url", rec.Link),
			zap.String("kind", scraper.Classify(err).String()),
			zap.Error(err))
		return outcomeFailed
	}

	week := weekKey(rec)
	seq[week]++
	path, err := r.descriptions.Save(text, rec.Year, rec.Date, seq[week], rec.JobTitle)
	if err != nil {
		seq[week]--
		r.logger.Error("description save failed",
			zap.Int("row", i), zap.Error(err))
		return outcomeFailed
	}

	rec.FullTextPreview = preview(text)
	rec.FullTextLength = len(text)
	rec.FullTextScrapedDate = r.now().Format("2006-01-02")
	rec.FullTextFile = path
	metrics.IncDescriptionSaved()
	r.logger.Info("description saved",
		zap.Int("row", i),
		zap.String("file", path),
		zap.Int("length", len(text)))
	return outcomeSucceeded
}

func (r *Runner) flush(cp store.Checkpoint) error {
	if err := r.records.Flush(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	cp.LastUpdate = r.now()
	if err := r.checkpoint.Save(cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	metrics.IncCheckpointWrite()
	r.logger.Info("checkpoint written",
		zap.Int("last_completed_row", cp.LastCompletedIndex))
	return nil
}

// interrupt persists progress on cancellation. The checkpoint survives so
// the next run resumes.
func (r *Runner) interrupt(cp store.Checkpoint, cause error) error {
	r.logger.Warn("run interrupted; flushing progress", zap.Error(cause))
	if cp.LastCompletedIndex >= 0 {
		if err := r.flush(cp); err != nil {
			return errors.Join(cause, err)
		}
	}
	return cause
}

// weekSequences rebuilds the per-week file counters from records that
// already have stored descriptions, so resumed runs keep numbering where
// the previous run stopped instead of starting over at 01.
func (r *Runner) weekSequences() map[string]int {
	seq := make(map[string]int)
	for i := 0; i < r.records.Len(); i++ {
		rec := r.records.At(i)
		if rec.FullTextFile != "" {
			seq[weekKey(rec)]++
		}
	}
	return seq
}

func weekKey(rec *store.Record) string {
	return fmt.Sprintf("%d/%s", rec.Year, rec.Date)
}

func skipReason(rec *store.Record) (bool, string) {
	switch {
	case rec.Scraped():
		return true, "already scraped"
	case rec.IsDuplicate:
		return true, "duplicate listing"
	case rec.Link == "":
		return true, "no link"
	case !validLink(rec.Link):
		return true, "invalid link"
	case policy.IsExcludedDomain(rec.Link):
		return true, "excluded domain"
	default:
		return false, ""
	}
}

func validLink(link string) bool {
	u, err := url.Parse(link)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	// Back up to a rune boundary so the cut never emits a partial UTF-8
	// sequence into the dataset.
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
