package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/api"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/config"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/extract"
	browserfetcher "github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/fetcher/browser"
	staticfetcher "github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/fetcher/static"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/pipeline"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/policy"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/quality"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/scraper"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/store"
)

// scrapeStack bundles everything a scraping command needs.
type scrapeStack struct {
	records      *store.RecordStore
	checkpoint   *store.CheckpointFile
	descriptions *store.Descriptions
	static       *staticfetcher.Fetcher
	browser      *browserfetcher.Session
	runner       *pipeline.Runner
}

// Close releases the browser if one was launched.
func (s *scrapeStack) Close() {
	if s.browser != nil {
		s.browser.Close()
	}
}

func buildScrapeStack(cfg config.Config, logger *zap.Logger) (*scrapeStack, error) {
	records, err := store.OpenRecordStore(cfg.Dataset.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	descriptions, err := store.NewDescriptions(cfg.Storage.DescriptionsDir)
	if err != nil {
		return nil, fmt.Errorf("open descriptions dir: %w", err)
	}
	checkpoint := store.NewCheckpointFile(cfg.Storage.CheckpointPath)

	static := staticfetcher.New(staticfetcher.Config{
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	})

	stack := &scrapeStack{
		records:      records,
		checkpoint:   checkpoint,
		descriptions: descriptions,
		static:       static,
	}

	var browser scraper.Fetcher
	if cfg.Browser.Enabled {
		stack.browser = browserfetcher.NewSession(browserfetcher.Config{
			UserAgent:          cfg.Scrape.UserAgent,
			NavigationTimeout:  time.Duration(cfg.Browser.NavTimeoutSeconds) * time.Second,
			NetworkIdleTimeout: time.Duration(cfg.Browser.IdleTimeoutSec) * time.Second,
			SettleDelay:        time.Duration(cfg.Browser.SettleMs) * time.Millisecond,
		}, logger.Named("browser"))
		browser = stack.browser
	}

	selector := scraper.NewSelector(
		static,
		browser,
		policy.NewRobotsGate(cfg.Scrape.RespectRobots, cfg.Scrape.UserAgent, logger.Named("robots")),
		policy.NewThrottle(cfg.RateDelay()),
		extractDocument,
		classifyText,
		scraper.SelectorConfig{JSRequiredDomains: cfg.Browser.JSRequiredDomains},
		logger.Named("selector"),
	)
	retrier := scraper.NewRetrier(selector, cfg.Scrape.MaxAttempts, cfg.BaseDelay(), logger.Named("retry"))

	stack.runner = pipeline.NewRunner(
		pipeline.Config{BatchSize: cfg.Storage.BatchSize},
		records, checkpoint, descriptions, retrier,
		logger.Named("pipeline"),
	)
	return stack, nil
}

// extractDocument dispatches HTML to the extractor for the target's site
// family and returns combined text.
func extractDocument(target scraper.FetchTarget, html []byte) (string, error) {
	var (
		doc *extract.Document
		err error
	)
	if target.Family == scraper.FamilyGovernmentJobs {
		doc, err = extract.GovernmentJobs(html)
	} else {
		doc, err = extract.Generic(target.URL, html)
	}
	if err != nil {
		return "", err
	}
	combined := doc.Combined()
	if combined == "" {
		return "", extract.ErrEmptyExtraction
	}
	return combined, nil
}

func classifyText(text string) (bool, string) {
	verdict := quality.Classify(text)
	return verdict.Generic, verdict.Reason
}

// startStatusServer runs the status API in the background when enabled.
// The returned shutdown func is safe to call unconditionally.
func startStatusServer(cfg config.Config, runner *pipeline.Runner, logger *zap.Logger) func() {
	if !cfg.Server.Enabled {
		return func() {}
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(runner.Progress(), logger.Named("api")).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("status server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server error", zap.Error(err))
		}
	}()
	return func() {
		if err := srv.Close(); err != nil {
			logger.Warn("status server close failed", zap.Error(err))
		}
	}
}
