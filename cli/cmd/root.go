package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "botflow",
	Short: "Botflow - Conversation flow runtime",
	Long: `Botflow executes conversation flows defined as YAML or JSON graphs.

The CLI tool validates flow files and runs them interactively from the
terminal, using standard input wherever a flow waits for an answer.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
}
