package main

import (
	"context"
	"fmt"

	"github.com/nao1215/phetcrawl/internal/config"
	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/report"
	"github.com/nao1215/phetcrawl/internal/transform"
	"github.com/spf13/cobra"
)

// NewTransformCmd creates the transform command.
func NewTransformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Slim down the downloaded documents and images",
		Long: `Transform rewrites the files downloaded by "phetcrawl crawl".

Each HTML document in <state-dir>/get is processed on its own:
- inlined base64 payloads are written to content-addressed files and
  referenced by name (ogg and mpeg audio stay inline)
- the third-party license block is removed and the document minified
- inline scripts are moved to content-addressed .js files

Screenshots are re-encoded or minified and written only when smaller.
Everything lands in <state-dir>/transform. A document or image that fails
is logged and skipped.

Examples:
  # Transform the default state directory
  phetcrawl transform

  # Transform another state directory with lower JPEG quality
  phetcrawl transform -s /data/phet -q 70`,
		Args: cobra.NoArgs,
		RunE: runTransformCmd,
	}

	addStateFlags(cmd)
	addTransformFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runTransformCmd executes the transform command.
func runTransformCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	reporter := log.NewReporter(logger, cfg.Verbose)
	summary, err := transformStage(ctx, cmd, cfg, reporter)
	if err != nil {
		return err
	}

	rep := &report.Report{Version: getVersion(), Transform: summary}
	if err := outputReport(cmd, cfg, func(w report.Writer) (int, error) {
		return w.Write(rep)
	}); err != nil {
		return err
	}
	return ctx.Err()
}

// transformStage runs the transform stage over the fetch-stage directory.
func transformStage(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reporter *log.Reporter) (*transform.Summary, error) {
	reporter.Logger().Info("starting transform",
		"from", cfg.FetchDir(),
		"to", cfg.TransformDir(),
		"workers", cfg.Workers,
	)

	t := transform.New(cfg,
		transform.WithReporter(reporter),
		transform.WithProgressWriter(cmd.ErrOrStderr()),
	)
	summary, err := t.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}
	return summary, nil
}
