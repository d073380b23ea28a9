package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for phetcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phetcrawl",
		Short: "Mirror an HTML5 simulation catalog for offline use",
		Long: `phetcrawl crawls an HTML5 simulation catalog and prepares it for offline use.

The crawl stage builds catalog.json and downloads every simulation document
and screenshot into <state-dir>/get. The transform stage reads those files
and writes slimmer documents, extracted assets, and optimized images into
<state-dir>/transform. The two stages only share files, so each can be run
on its own.

Settings are taken from defaults, then the .phetcrawl file, then the
PHET_WORKERS, PHET_VERBOSE_ERRORS and PHET_LANGUAGES environment variables,
then command-line flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging and full error detail")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .phetcrawl in current or home directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewTransformCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
