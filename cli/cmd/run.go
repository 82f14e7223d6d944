package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BDNK1/botflow/executor"
	"github.com/BDNK1/botflow/runtime"
)

var (
	contextVars []string
	verbose     bool
)

var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Run a flow interactively in the terminal",
	Long: `Run executes a flow file with the default node executor. Whenever the
flow suspends waiting for input, the prompt is printed and the answer is
read from standard input.

Example:
  botflow run flows/onboarding.yaml
  botflow run flows/onboarding.yaml --var name=Alice --var plan=pro
`,
	Args: cobra.ExactArgs(1),
	RunE: runFlow,
}

func init() {
	runCmd.Flags().StringArrayVar(&contextVars, "var", nil, "Initial context variable as key=value (repeatable)")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "Log engine activity to stderr")
}

func runFlow(cmd *cobra.Command, args []string) error {
	flow, err := runtime.ReadFlow(args[0])
	if err != nil {
		return err
	}

	callerContext := map[string]any{}
	for _, kv := range contextVars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --var %q, expected key=value", kv)
		}
		callerContext[key] = value
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	httpCfg := executor.HTTPConfig{}
	if err := runtime.PrepareConfig(&httpCfg); err != nil {
		return err
	}

	engine := runtime.NewEngine(runtime.NewEngineConfig(), executor.NewDefaultExecutor(logger, httpCfg), logger)
	defer engine.Close()

	result := engine.ExecuteFlow(cmd.Context(), flow, callerContext)
	if !result.Success && result.ExecutionID == "" {
		for _, e := range result.Errors {
			fmt.Printf("error: %s\n", e)
		}
		return fmt.Errorf("flow %s failed validation", flow.ID)
	}

	printOutputs(result.Outputs)
	status := result.FinalState.Status
	message := result.Message
	errText := result.Error

	stdin := bufio.NewScanner(os.Stdin)
	for status == runtime.StatusWaitingInput {
		fmt.Printf("%s\n> ", message)
		if !stdin.Scan() {
			return fmt.Errorf("input closed while flow was waiting")
		}

		resumed := engine.ResumeFlow(cmd.Context(), result.ExecutionID, map[string]any{
			"input": strings.TrimSpace(stdin.Text()),
		})
		printOutputs(resumed.Outputs)
		status = resumed.FinalState.Status
		message = resumed.Message
		errText = resumed.Error
	}

	if status == runtime.StatusError {
		return fmt.Errorf("flow execution failed: %s", errText)
	}
	fmt.Printf("\nFlow %s finished: %s\n", flow.ID, status)
	return nil
}

func printOutputs(outputs []any) {
	for _, output := range outputs {
		payload, ok := output.(map[string]any)
		if !ok {
			fmt.Println(output)
			continue
		}
		switch payload["type"] {
		case "message":
			fmt.Println(payload["content"])
		case "end":
			// Terminal marker, nothing to show.
		default:
			fmt.Printf("[%v] %v\n", payload["type"], payload)
		}
	}
}
