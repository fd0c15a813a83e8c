package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/ae-stats-spider/internal/app"
	"github.com/JakeFAU/ae-stats-spider/internal/config"
	"github.com/JakeFAU/ae-stats-spider/internal/logging"
	"github.com/JakeFAU/ae-stats-spider/internal/spider"
)

// runner is the unit of work the root command drives. It's a variable so
// tests can substitute it.
type runner interface {
	Run(ctx context.Context) (spider.Result, error)
	Close() error
}

var newRunner = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (runner, error) {
	return app.New(ctx, cfg, logger)
}

var newLogger = logging.New

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "aespider",
		Short: "Download NHS A&E attendance spreadsheets and log what was found.",
		Long: `aespider crawls the NHS England A&E attendances statistics pages,
downloads every monthly and weekly spreadsheet into a content-addressed
data directory and writes a log_<timestamp>.json manifest for the run.
It performs a single run and exits; schedule it with cron.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfgFile)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json); SPIDER_* env vars override it")
	return cmd
}

func run(ctx context.Context, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return err
	}
	logger, err := newLogger(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return err
	}
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	r, err := newRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize spider", zap.Error(err))
		return err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil {
			logger.Warn("failed to release resources", zap.Error(closeErr))
		}
	}()

	result, err := r.Run(ctx)
	if err != nil {
		logger.Error("spider run failed", zap.Error(err))
		return err
	}
	logger.Info("spider run finished",
		zap.String("run_id", result.RunID),
		zap.String("log_path", result.LogPath),
		zap.Int("files", len(result.Log.DataFilesDiscovered)),
	)
	return nil
}
