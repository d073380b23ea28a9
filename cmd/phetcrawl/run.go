package main

import (
	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl, then transform",
		Long: `Run executes "phetcrawl crawl" followed by "phetcrawl transform" and prints
one report covering both stages. The transform stage is skipped when the
crawl is interrupted.

Examples:
  # Mirror the English and German catalogs
  phetcrawl run -l en,de

  # Write a JSON report for automation
  phetcrawl run -j -o state/report.json`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	addStateFlags(cmd)
	addCrawlFlags(cmd)
	addTransformFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	reporter := log.NewReporter(logger, cfg.Verbose)
	rep := &report.Report{Version: getVersion()}

	rep.Crawl, err = crawlStage(ctx, cmd, cfg, reporter)
	if err != nil {
		return err
	}

	if ctx.Err() == nil {
		rep.Transform, err = transformStage(ctx, cmd, cfg, reporter)
		if err != nil {
			return err
		}
	}

	if err := outputReport(cmd, cfg, func(w report.Writer) (int, error) {
		return w.Write(rep)
	}); err != nil {
		return err
	}
	return ctx.Err()
}
