package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BDNK1/botflow/runtime"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>...",
	Short: "Validate flow definition files",
	Long: `Validate parses each flow file and runs the full static analysis:
node and edge shape checks, graph structure checks, and variable checks.

Example:
  botflow validate flows/onboarding.yaml
  botflow validate flows/*.yaml
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(_ *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		flow, err := runtime.ReadFlow(path)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}

		result := runtime.ValidateFlow(flow)
		if result.Valid {
			fmt.Printf("✓ %s (%s)\n", path, flow.ID)
		} else {
			fmt.Printf("✗ %s (%s)\n", path, flow.ID)
			failed++
		}
		for _, e := range result.Errors {
			fmt.Printf("    error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Printf("    warning: %s\n", w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d flow file(s) failed validation", failed, len(args))
	}
	return nil
}
