package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "annotator",
	Short: "Video QA annotation server and tools",
	Long: `Annotator serves the QA constructor, review and quiz workflows over HTTP
and provides command line tools for clock values, clip previews and
dataset conversion.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(timecodeCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(convertCmd)
}
