// Package cli holds the transcribe command line.
package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "transcribe [source]",
	Short: "Type math-marked text into a document with native equations and images",
	Long: `Transcribe one source file into a .docx document.

The text is typed into a fresh document, $$...$$ and $...$ regions become
equations and each <!-- image --> marker is replaced, in order, by the
images that sit next to the source file. Running without a source does
nothing.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runTranscribe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln("Error:", err)
		return err
	}
	return nil
}
