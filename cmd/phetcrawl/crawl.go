package main

import (
	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Build the catalog and download every simulation",
		Long: `Crawl builds the simulation catalog and downloads its files.

For every configured language it reads the offline-access page, fetches
each simulation's detail page for its title, description, topics and
categories, and writes <state-dir>/get/catalog.json sorted by language and
id. It then downloads each simulation document and one screenshot per
simulation into <state-dir>/get.

Items that fail are logged and skipped; the report lists them. The run is
recorded in the history database used by "phetcrawl compare".

Examples:
  # Crawl the English catalog
  phetcrawl crawl

  # Crawl several languages with more workers
  phetcrawl crawl -l en,fr,es -w 20

  # Write a Markdown report
  phetcrawl crawl -m -o reports/crawl.md`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	addStateFlags(cmd)
	addCrawlFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	reporter := log.NewReporter(logger, cfg.Verbose)
	result, err := crawlStage(ctx, cmd, cfg, reporter)
	if err != nil {
		return err
	}

	rep := &report.Report{Version: getVersion(), Crawl: result}
	if err := outputReport(cmd, cfg, func(w report.Writer) (int, error) {
		return w.Write(rep)
	}); err != nil {
		return err
	}
	return ctx.Err()
}
