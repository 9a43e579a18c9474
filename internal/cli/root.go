// Package cli implements the shapegen command-line interface.
//
// # Commands
//
//   - generate: load filler images and write a shape dataset
//   - pattern:  render one procedural background to a file for previewing
//   - version:  print build information
//
// All commands accept --verbose (-v) for debug logging. The logger travels to
// subcommands through the command context.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion sets the version information shown by --version. main calls it
// with values injected through ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the shapegen CLI. SIGINT cancels the running command's context,
// which stops generation between samples.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "shapegen",
		Short:        "Generate labeled shape datasets from filler images",
		Long:         `shapegen composites filler images (CIFAR-10, MNIST, a local folder, or generated patterns) through circle, square and triangle masks, writing one folder of samples per shape.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.SetVersionTemplate(versionText())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newPatternCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionText())
		},
	})

	return root
}

func versionText() string {
	return fmt.Sprintf("shapegen %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
}
