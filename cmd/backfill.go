package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Scrapes full descriptions for every unscraped record",
		Long: `Walks the dataset in order and scrapes the full posting text for each
record that has none yet. Progress is checkpointed every batch, so an
interrupted run resumes where it stopped. Ctrl-C flushes and exits cleanly.`,
		RunE: runBackfill,
	}
}

func runBackfill(cmd *cobra.Command, _ []string) error {
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

	stopServer := startStatusServer(cfg, stack.runner, logger)
	defer stopServer()

	summary, err := stack.runner.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("backfill: %w", err)
	}

	logger.Info("backfill finished",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("completed", summary.Completed))
	fmt.Printf("processed %d records: %d scraped, %d failed, %d skipped (%.0f%% success)\n",
		summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped,
		summary.SuccessRate()*100)
	return nil
}
