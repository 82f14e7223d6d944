package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BDNK1/botflow/runtime"
)

// DefaultExecutor is the built-in NodeExecutor. It covers the whole closed
// node-type set in-process: messages and emails become channel-agnostic
// output payloads, question/input/menu suspend until input arrives,
// api_call and webhook perform real HTTP, set_variable and action evaluate
// expression templates. Branching itself stays with the engine.
type DefaultExecutor struct {
	l       *slog.Logger
	http    *httpClient
	actions map[string]ActionFunc
}

func NewDefaultExecutor(l *slog.Logger, httpCfg HTTPConfig) *DefaultExecutor {
	return &DefaultExecutor{
		l:       l,
		http:    newHTTPClient(httpCfg),
		actions: map[string]ActionFunc{},
	}
}

func (x *DefaultExecutor) Execute(ctx context.Context, node *runtime.Node, state *runtime.ExecutionState) (*runtime.NodeResult, error) {
	payload, err := runtime.DecodeNodeData(node)
	if err != nil {
		return &runtime.NodeResult{Error: err.Error()}, nil
	}

	switch data := payload.(type) {
	case nil:
		if node.Type == runtime.NodeTypeEnd {
			return &runtime.NodeResult{
				Success: true,
				Output:  map[string]any{"type": "end"},
			}, nil
		}
		return &runtime.NodeResult{Success: true}, nil

	case *runtime.MessageData:
		content := data.Content
		if content == "" {
			content = data.Label
		}
		return &runtime.NodeResult{
			Success: true,
			Output: map[string]any{
				"type":    "message",
				"content": str(evalValue(content, state.Variables)),
			},
		}, nil

	case *runtime.QuestionData:
		return x.executeQuestion(data.Content, data.Options, data.VariableName, state, false), nil

	case *runtime.MenuData:
		return x.executeQuestion(data.Prompt, data.Options, data.VariableName, state, true), nil

	case *runtime.InputData:
		return x.executeInput(data, state), nil

	case *runtime.ConditionData:
		// All entries must hold; the engine routes on the resulting label.
		matched := true
		for _, cond := range data.Conditions {
			if !runtime.EvaluateCondition(cond, state.Variables) {
				matched = false
				break
			}
		}
		return &runtime.NodeResult{
			Success:        true,
			SelectedOption: strconv.FormatBool(matched),
		}, nil

	case *runtime.ActionData:
		return x.runAction(ctx, data, state)

	case *runtime.SetVariableData:
		return &runtime.NodeResult{
			Success: true,
			Variables: map[string]any{
				data.VariableName: evalValue(data.Value, state.Variables),
			},
		}, nil

	case *runtime.APICallData:
		return x.http.callAPI(ctx, data, state.Variables), nil

	case *runtime.WebhookData:
		return x.http.sendWebhook(ctx, data, state.Variables), nil

	case *runtime.GotoData:
		return &runtime.NodeResult{
			Success:    true,
			NextNodeID: data.TargetNodeID,
		}, nil

	case *runtime.EmailData:
		return &runtime.NodeResult{
			Success: true,
			Output: map[string]any{
				"type":    "email",
				"to":      str(evalValue(data.To, state.Variables)),
				"subject": str(evalValue(data.Subject, state.Variables)),
				"body":    str(evalValue(data.Body, state.Variables)),
			},
		}, nil

	default:
		return nil, fmt.Errorf("no handler for node type %q", node.Type)
	}
}

// executeQuestion handles question and menu nodes. Without pending input
// the node suspends with its prompt; with input it binds the answer and,
// for menus, insists the answer is one of the offered options. Re-executing
// a suspended node without input suspends again, which makes resume safe to
// retry.
func (x *DefaultExecutor) executeQuestion(prompt string, options []string, variableName string, state *runtime.ExecutionState, strict bool) *runtime.NodeResult {
	value, ok := pendingValue(state, variableName)
	if !ok {
		return &runtime.NodeResult{
			Success:      true,
			WaitForInput: true,
			Message:      str(evalValue(prompt, state.Variables)),
		}
	}

	answer := str(value)
	if strict && len(options) > 0 && !containsOption(options, answer) {
		return &runtime.NodeResult{
			Success:      true,
			WaitForInput: true,
			Message:      fmt.Sprintf("Please choose one of: %s", strings.Join(options, ", ")),
		}
	}

	result := &runtime.NodeResult{
		Success:        true,
		SelectedOption: answer,
	}
	if variableName != "" {
		result.Variables = map[string]any{variableName: value}
	}
	return result
}

func (x *DefaultExecutor) executeInput(data *runtime.InputData, state *runtime.ExecutionState) *runtime.NodeResult {
	value, ok := pendingValue(state, data.VariableName)
	if !ok {
		return &runtime.NodeResult{
			Success:      true,
			WaitForInput: true,
			Message:      str(evalValue(data.Prompt, state.Variables)),
		}
	}

	if err := validateInput(data.Validation, data.Pattern, str(value)); err != nil {
		return &runtime.NodeResult{
			Success:      true,
			WaitForInput: true,
			Message:      err.Error(),
		}
	}

	return &runtime.NodeResult{
		Success:   true,
		Variables: map[string]any{data.VariableName: value},
	}
}

// pendingValue extracts the answer for a waiting node from the resume
// input: the declared variable name first, then the generic "input" key,
// then a sole entry of any name.
func pendingValue(state *runtime.ExecutionState, variableName string) (any, bool) {
	pending := state.PendingInput
	if len(pending) == 0 {
		return nil, false
	}
	if variableName != "" {
		if v, ok := pending[variableName]; ok {
			return v, true
		}
	}
	if v, ok := pending["input"]; ok {
		return v, true
	}
	if len(pending) == 1 {
		for _, v := range pending {
			return v, true
		}
	}
	return nil, false
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return true
		}
	}
	return false
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,}$`)
)

// validateInput checks a submitted value against an input node's declared
// validation format. A failure message doubles as the re-prompt.
func validateInput(validation, pattern, value string) error {
	switch validation {
	case "", "none":
		return nil
	case "email":
		if !emailPattern.MatchString(value) {
			return fmt.Errorf("%q is not a valid email address", value)
		}
	case "phone":
		if !phonePattern.MatchString(value) {
			return fmt.Errorf("%q is not a valid phone number", value)
		}
	case "url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%q is not a valid URL", value)
		}
	case "number":
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return fmt.Errorf("%q is not a number", value)
		}
	case "date":
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("%q is not a valid date (expected YYYY-MM-DD)", value)
		}
	case "time":
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("%q is not a valid time (expected HH:MM)", value)
		}
	case "regex":
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("input pattern %q is invalid: %v", pattern, err)
		}
		if !re.MatchString(value) {
			return fmt.Errorf("%q does not match the expected format", value)
		}
	}
	return nil
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
