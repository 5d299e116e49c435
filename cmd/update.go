package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/archive"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/config"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/listings"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/llm"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/store"
)

func newUpdateCmd() *cobra.Command {
	var skipScrape bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Downloads new weekly pages and ingests their job listings",
		Long: `Syncs the electionline weekly archive into the local cache, parses job
listings out of any new weeks, extracts structured fields for each listing,
appends the new records to the dataset, and then scrapes their full
descriptions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd, skipScrape)
		},
	}
	cmd.Flags().BoolVar(&skipScrape, "skip-scrape", false, "ingest new listings without scraping full descriptions")
	return cmd
}

func runUpdate(cmd *cobra.Command, skipScrape bool) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	stack, err := buildScrapeStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	downloader := archive.New(archive.Config{
		BaseURL:   cfg.Archive.BaseURL,
		CacheDir:  cfg.Archive.CacheDir,
		FirstYear: cfg.Archive.FirstYear,
	}, stack.static, logger.Named("archive"))

	newWeeks, err := downloader.Sync(cmd.Context())
	if err != nil {
		return fmt.Errorf("sync weekly archive: %w", err)
	}
	logger.Info("archive synced", zap.Int("new_weeks", len(newWeeks)))

	added, err := ingestWeeks(cmd.Context(), cfg, newWeeks, stack.records, logger)
	if err != nil {
		return err
	}
	if added > 0 {
		if err := stack.records.Flush(); err != nil {
			return fmt.Errorf("flush dataset: %w", err)
		}
	}
	fmt.Printf("ingested %d new listings from %d new weeks\n", added, len(newWeeks))

	if skipScrape {
		return nil
	}

	stopServer := startStatusServer(cfg, stack.runner, logger)
	defer stopServer()

	summary, err := stack.runner.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scrape new listings: %w", err)
	}
	fmt.Printf("processed %d records: %d scraped, %d failed, %d skipped\n",
		summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
	return nil
}

// ingestWeeks parses listings out of freshly downloaded weeks, enriches
// them, flags duplicates against the existing dataset, and appends them.
func ingestWeeks(
	ctx context.Context,
	cfg config.Config,
	weeks []archive.WeekPage,
	records *store.RecordStore,
	logger *zap.Logger,
) (int, error) {
	if len(weeks) == 0 {
		return 0, nil
	}

	extractor := newFieldExtractor(cfg, logger)
	seen := listings.CollectFingerprints(records)

	added := 0
	for _, week := range weeks {
		html, err := os.ReadFile(week.Path)
		if err != nil {
			return added, fmt.Errorf("read cached week %s: %w", week.Path, err)
		}
		parsed, err := listings.ParseWeek(html, week.Year, week.Date)
		if err != nil {
			logger.Warn("week parse failed",
				zap.String("week", week.Date), zap.Error(err))
			continue
		}

		newRecs := make([]store.Record, 0, len(parsed))
		for _, l := range parsed {
			rec := store.Record{
				Year:        l.Year,
				Date:        strings.TrimPrefix(l.WeekDate, fmt.Sprintf("%d-", l.Year)),
				Description: l.Description,
				Link:        l.Link,
			}
			enrichRecord(ctx, extractor, &rec, logger)
			newRecs = append(newRecs, rec)
		}

		flagged := listings.MarkAgainst(seen, newRecs)
		records.Append(newRecs...)
		added += len(newRecs)
		logger.Info("week ingested",
			zap.String("week", week.Date),
			zap.Int("listings", len(newRecs)),
			zap.Int("duplicates", flagged))
	}
	return added, nil
}

// newFieldExtractor returns nil when no API key is configured; ingestion
// then proceeds with unenriched records.
func newFieldExtractor(cfg config.Config, logger *zap.Logger) *llm.Extractor {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		logger.Warn("ANTHROPIC_API_KEY not set; skipping structured field extraction")
		return nil
	}
	extractor, err := llm.NewExtractor(llm.Config{
		APIKey:    key,
		Model:     cfg.LLM.Model,
		MaxTokens: int64(cfg.LLM.MaxTokens),
	}, logger.Named("llm"))
	if err != nil {
		logger.Warn("field extractor init failed", zap.Error(err))
		return nil
	}
	return extractor
}

func enrichRecord(ctx context.Context, extractor *llm.Extractor, rec *store.Record, logger *zap.Logger) {
	if extractor == nil {
		return
	}
	fields, err := extractor.ExtractFields(ctx, rec.Description)
	if err != nil {
		logger.Warn("field extraction failed",
			zap.String("link", rec.Link), zap.Error(err))
		return
	}
	rec.JobTitle = fields.JobTitle
	rec.Employer = fields.Employer
	rec.State = fields.State
	rec.PayBasis = llm.CanonicalPayBasis(fields.PayBasis)
	rec.Classification = fields.Classification
	rec.SalaryLow, rec.SalaryHigh, rec.SalaryMean = llm.AnnualRange(
		fields.SalaryLow, fields.SalaryHigh, fields.PayBasis)
}
