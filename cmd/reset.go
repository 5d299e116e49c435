package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/store"
)

func newResetCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clears the backfill checkpoint",
		Long: `Removes the checkpoint so the next backfill starts from row zero.
With --full it also deletes every stored description and clears the
full-text columns in the dataset, rebuilding the scrape state from nothing.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runReset(full)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "also delete stored descriptions and clear full-text columns")
	return cmd
}

func runReset(full bool) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	checkpoint := store.NewCheckpointFile(cfg.Storage.CheckpointPath)
	if err := checkpoint.Clear(); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	fmt.Println("checkpoint cleared")

	if !full {
		return nil
	}

	descriptions, err := store.NewDescriptions(cfg.Storage.DescriptionsDir)
	if err != nil {
		return fmt.Errorf("open descriptions dir: %w", err)
	}
	if err := descriptions.Reset(); err != nil {
		return fmt.Errorf("reset descriptions: %w", err)
	}

	records, err := store.OpenRecordStore(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	records.ClearFullText()
	if err := records.Flush(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	fmt.Println("descriptions and full-text columns cleared")
	return nil
}
