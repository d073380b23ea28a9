package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/phetcrawl/internal/database"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the catalogs of recorded crawl runs",
		Long: `Compare shows how the catalog changed between two recorded crawl runs.

By default the latest run is compared with the one before it. Simulations
are matched by id and language and reported as added, removed, or changed
(title, description, topics, or categories differ).

Examples:
  # Compare the two latest runs
  phetcrawl compare

  # List recorded runs
  phetcrawl compare --list

  # Compare the latest run with run 3
  phetcrawl compare --with-run-id 3

  # Output as Markdown
  phetcrawl compare --markdown`,
		Args: cobra.NoArgs,
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List recorded crawl runs")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with the run of this ID")
	addReportFlags(cmd)

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	listRuns, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no crawl history in %s (run \"phetcrawl crawl\" first)", cfg.DBDir)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if listRuns {
		runs, err := db.ListRuns(ctx)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		return outputReport(cmd, cfg, func(w report.Writer) (int, error) {
			return w.WriteRuns(runs)
		})
	}

	comparison, err := compareRuns(ctx, db, withRunID)
	if err != nil {
		return err
	}
	return outputReport(cmd, cfg, func(w report.Writer) (int, error) {
		return w.WriteComparison(comparison)
	})
}

// compareRuns diffs the latest run against the run before it, or against
// withRunID when it is positive.
func compareRuns(ctx context.Context, db *database.CatalogDB, withRunID int64) (*report.Comparison, error) {
	latest, err := db.LatestRuns(ctx, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	if len(latest) == 0 {
		return nil, errors.New("no crawl runs recorded")
	}
	newer := latest[0]

	var older database.RunRecord
	switch {
	case withRunID > 0:
		run, err := db.GetRun(ctx, withRunID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run %d: %w", withRunID, err)
		}
		if run == nil {
			return nil, fmt.Errorf("run with ID %d not found", withRunID)
		}
		if run.ID == newer.ID {
			return nil, fmt.Errorf("run %d is the latest run; choose an earlier run", withRunID)
		}
		older = *run
	case len(latest) < 2:
		return nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(latest))
	default:
		older = latest[1]
	}

	olderCatalog, err := db.GetCatalog(ctx, older.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog of run %d: %w", older.ID, err)
	}
	newerCatalog, err := db.GetCatalog(ctx, newer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog of run %d: %w", newer.ID, err)
	}

	return &report.Comparison{
		Older: older,
		Newer: newer,
		Diff:  model.CompareCatalogs(olderCatalog, newerCatalog),
	}, nil
}
