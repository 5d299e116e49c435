// Package cmd defines the CLI commands for the elwjobs executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/config"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/logging"
	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/metrics"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elwjobs",
		Short: "Collects and scrapes election-official job postings",
		Long: `elwjobs maintains a dataset of election administration job postings
published in electionline weekly. It downloads weekly archive pages, parses
job listings, and scrapes each posting's full description with a resilient
static-or-browser fetching pipeline.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus ELWJOBS_* env)")

	cmd.AddCommand(newBackfillCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newResetCmd())
	return cmd
}

// Execute runs the CLI with signal-driven cancellation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "elwjobs: %v\n", err)
		os.Exit(1)
	}
}

// loadEnvironment builds the config and logger shared by every subcommand.
func loadEnvironment() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}

	var logger *zap.Logger
	if cfg.Logging.ErrorFile != "" {
		logger, err = logging.NewFileLogger(cfg.Logging.ErrorFile, cfg.Logging.Development)
	} else {
		logger, err = logging.New(cfg.Logging.Development)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger init: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()
	return cfg, logger, nil
}
