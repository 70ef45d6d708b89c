// ABOUTME: Root CLI command with global flags
// ABOUTME: Subcommands: serve (HTTP API), mcp (stdio server), version
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docresearch",
		Short: "Document research service with iterative retrieval",
		Long: `docresearch answers questions about your documents.

Upload files, let the background indexer chunk and embed them, then ask
questions. A research loop searches the documents over several rounds,
refining its query as it learns, and streams its reasoning while it works.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
