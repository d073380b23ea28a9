package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/phetcrawl/internal/config"
	"github.com/nao1215/phetcrawl/internal/crawler"
	"github.com/nao1215/phetcrawl/internal/database"
	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/report"
	"github.com/spf13/cobra"
)

// addStateFlags registers flags shared by the stage commands.
func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("state-dir", "s", config.DefaultStateDir,
		"Root directory of the stage directories (get/ and transform/)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent fetches, downloads, and image optimizations")
}

// addCrawlFlags registers flags used by commands that run the crawl stage.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("languages", "l", nil,
		"Languages to crawl, comma separated (default: en)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Catalog site root")
	cmd.Flags().IntP("resolution", "r", config.DefaultImageResolution,
		"Screenshot resolution suffix")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Bool("no-db", false,
		"Do not record the crawl in the run history database")
}

// addTransformFlags registers flags used by commands that run the transform stage.
func addTransformFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jpeg-quality", "q", config.DefaultJPEGQuality,
		"JPEG re-encoding quality (1-100)")
}

// addReportFlags registers the report output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the config file, the
// environment, and the command's flags, in that order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var configPath string
	if f := cmd.Flag("config"); f != nil {
		configPath = f.Value.String()
	}

	// An explicit path must exist; the implicit lookup may find nothing.
	found := config.FindConfigFile(configPath)
	switch {
	case found != "":
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cfg.ApplyFile(file)
		cfg.ConfigFilePath = found
	case configPath != "":
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag the user set explicitly.
// Flags the command does not define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := flags.Changed

	var err error
	if getVerboseFlag(cmd) {
		cfg.Verbose = true
	}
	if changed("state-dir") {
		if cfg.StateDir, err = flags.GetString("state-dir"); err != nil {
			return err
		}
	}
	if changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if changed("languages") {
		if cfg.Languages, err = flags.GetStringSlice("languages"); err != nil {
			return err
		}
	}
	if changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return err
		}
	}
	if changed("resolution") {
		if cfg.ImageResolution, err = flags.GetInt("resolution"); err != nil {
			return err
		}
	}
	if changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed("jpeg-quality") {
		if cfg.JPEGQuality, err = flags.GetInt("jpeg-quality"); err != nil {
			return err
		}
	}
	if changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noDB
	}

	if flags.Lookup("json") != nil {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	if flags.Lookup("markdown") != nil {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if flags.Lookup("output") != nil {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	return nil
}

// setup builds and validates the configuration and installs the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// crawlStage runs the crawl stage and records it in the run history.
func crawlStage(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reporter *log.Reporter) (*crawler.Result, error) {
	logger := reporter.Logger()
	logger.Info("starting crawl",
		"base_url", cfg.BaseURL,
		"languages", cfg.Languages,
		"workers", cfg.Workers,
		"state_dir", cfg.StateDir,
	)
	fmt.Fprintf(cmd.ErrOrStderr(), "Crawling %s...\n", cfg.BaseURL)

	result, err := crawler.New(cfg, crawler.WithReporter(reporter)).Crawl(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}

	elapsed := result.FinishedAt.Sub(result.StartedAt)
	fmt.Fprintf(cmd.ErrOrStderr(), "Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

	if err := saveCrawlRun(ctx, cfg, result, logger); err != nil {
		logger.Error("failed to save crawl run", "error", err)
	}
	return result, nil
}

// saveCrawlRun records the crawl in the history database when enabled.
// Interrupted crawls are not recorded.
func saveCrawlRun(ctx context.Context, cfg *config.Config, result *crawler.Result, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}
	if ctx.Err() != nil {
		logger.Warn("crawl was interrupted, not recording it in the run history")
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveCrawlRun(ctx, &database.CrawlRun{
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Languages:  result.Languages,
		Catalog:    result.Catalog,
		Downloads:  result.Downloads,
		Failures:   len(result.Failures),
	})
	if err != nil {
		return err
	}

	logger.Info("crawl run saved to history", "run_id", id, "dir", cfg.DBDir)
	return nil
}

// newReportWriter returns the writer for the configured report format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport renders a report to stdout or to the configured report file.
func outputReport(cmd *cobra.Command, cfg *config.Config, write func(report.Writer) (int, error)) error {
	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := write(newReportWriter(cfg, output))
	return err
}
