package executor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BDNK1/botflow/runtime"
)

func newTestExecutor(t *testing.T) *DefaultExecutor {
	t.Helper()
	cfg := HTTPConfig{}
	require.NoError(t, runtime.PrepareConfig(&cfg))
	return NewDefaultExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func newState(variables map[string]any) *runtime.ExecutionState {
	if variables == nil {
		variables = map[string]any{}
	}
	return &runtime.ExecutionState{
		ID:        runtime.NewExecutionID(),
		Variables: variables,
		Context:   map[string]any{},
	}
}

func TestExecuteMessage(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "m", Type: runtime.NodeTypeMessage, Data: map[string]any{
		"content": "Hi {{name}}!",
	}}

	result, err := x.Execute(context.Background(), node, newState(map[string]any{"name": "Alice"}))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, map[string]any{"type": "message", "content": "Hi Alice!"}, result.Output)
}

func TestExecuteStartAndEnd(t *testing.T) {
	x := newTestExecutor(t)

	start, err := x.Execute(context.Background(), &runtime.Node{ID: "s", Type: runtime.NodeTypeStart}, newState(nil))
	require.NoError(t, err)
	assert.True(t, start.Success)
	assert.Nil(t, start.Output)

	end, err := x.Execute(context.Background(), &runtime.Node{ID: "e", Type: runtime.NodeTypeEnd}, newState(nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "end"}, end.Output)
}

func TestExecuteSetVariable(t *testing.T) {
	x := newTestExecutor(t)

	tests := []struct {
		name     string
		data     map[string]any
		expected any
	}{
		{"literal", map[string]any{"variableName": "x", "value": "plain"}, "plain"},
		{"number literal", map[string]any{"variableName": "x", "value": 7}, 7},
		{"expression", map[string]any{"variableName": "x", "value": "{{count * 2}}"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &runtime.Node{ID: "sv", Type: runtime.NodeTypeSetVariable, Data: tt.data}
			result, err := x.Execute(context.Background(), node, newState(map[string]any{"count": 5}))

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Variables["x"])
		})
	}
}

func TestExecuteQuestionSuspendsAndBinds(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "q", Type: runtime.NodeTypeQuestion, Data: map[string]any{
		"content":      "Tea or coffee?",
		"options":      []any{"tea", "coffee"},
		"variableName": "drink",
	}}
	state := newState(nil)

	// No pending input: suspend with the prompt.
	waiting, err := x.Execute(context.Background(), node, state)
	require.NoError(t, err)
	assert.True(t, waiting.WaitForInput)
	assert.Equal(t, "Tea or coffee?", waiting.Message)

	// Re-executing without input suspends again: resume is safe to retry.
	again, err := x.Execute(context.Background(), node, state)
	require.NoError(t, err)
	assert.True(t, again.WaitForInput)

	state.PendingInput = map[string]any{"drink": "tea"}
	answered, err := x.Execute(context.Background(), node, state)
	require.NoError(t, err)
	assert.False(t, answered.WaitForInput)
	assert.Equal(t, "tea", answered.SelectedOption)
	assert.Equal(t, map[string]any{"drink": "tea"}, answered.Variables)
}

func TestExecuteMenuRejectsUnknownOption(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "m", Type: runtime.NodeTypeMenu, Data: map[string]any{
		"prompt":       "Pick one",
		"options":      []any{"red", "blue"},
		"variableName": "color",
	}}
	state := newState(nil)
	state.PendingInput = map[string]any{"color": "green"}

	result, err := x.Execute(context.Background(), node, state)

	require.NoError(t, err)
	assert.True(t, result.WaitForInput, "unknown menu options re-prompt")
	assert.Contains(t, result.Message, "red, blue")
}

func TestExecuteInputValidation(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "i", Type: runtime.NodeTypeInput, Data: map[string]any{
		"prompt":       "Email?",
		"variableName": "email",
		"validation":   "email",
	}}

	state := newState(nil)
	state.PendingInput = map[string]any{"email": "not-an-email"}
	rejected, err := x.Execute(context.Background(), node, state)
	require.NoError(t, err)
	assert.True(t, rejected.WaitForInput, "invalid input re-prompts")
	assert.Contains(t, rejected.Message, "not a valid email")

	state.PendingInput = map[string]any{"email": "a@example.com"}
	accepted, err := x.Execute(context.Background(), node, state)
	require.NoError(t, err)
	assert.False(t, accepted.WaitForInput)
	assert.Equal(t, "a@example.com", accepted.Variables["email"])
}

func TestValidateInputFormats(t *testing.T) {
	tests := []struct {
		validation string
		pattern    string
		value      string
		ok         bool
	}{
		{"email", "", "a@b.co", true},
		{"email", "", "nope", false},
		{"phone", "", "+1 (555) 123-4567", true},
		{"phone", "", "abc", false},
		{"url", "", "https://example.com/x", true},
		{"url", "", "example", false},
		{"number", "", "3.14", true},
		{"number", "", "three", false},
		{"date", "", "2026-08-31", true},
		{"date", "", "31/08/2026", false},
		{"time", "", "09:30", true},
		{"time", "", "9:30pm", false},
		{"regex", `^[A-Z]{3}$`, "ABC", true},
		{"regex", `^[A-Z]{3}$`, "abc", false},
		{"", "", "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.validation+"/"+tt.value, func(t *testing.T) {
			err := validateInput(tt.validation, tt.pattern, tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestExecuteConditionNode(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "c", Type: runtime.NodeTypeCondition, Data: map[string]any{
		"conditions": []any{
			map[string]any{"variable": "age", "operator": "greater_than", "value": 18},
			map[string]any{"variable": "name", "operator": "is_not_empty", "value": ""},
		},
	}}

	adult, err := x.Execute(context.Background(), node, newState(map[string]any{"age": 30, "name": "Alice"}))
	require.NoError(t, err)
	assert.Equal(t, "true", adult.SelectedOption)

	minor, err := x.Execute(context.Background(), node, newState(map[string]any{"age": 10, "name": "Bob"}))
	require.NoError(t, err)
	assert.Equal(t, "false", minor.SelectedOption)
}

func TestExecuteActionUnregistered(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "a", Type: runtime.NodeTypeAction, Data: map[string]any{
		"action": "notify_crm",
		"args":   map[string]any{"user": "{{name}}"},
	}}

	result, err := x.Execute(context.Background(), node, newState(map[string]any{"name": "Alice"}))

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"type":   "action",
		"action": "notify_crm",
		"args":   map[string]any{"user": "Alice"},
	}, result.Output)
}

func TestExecuteActionRegisteredHandler(t *testing.T) {
	x := newTestExecutor(t)
	x.RegisterAction("score", func(_ context.Context, args map[string]any, _ *runtime.ExecutionState) (map[string]any, error) {
		return map[string]any{"score": args["base"]}, nil
	})
	node := &runtime.Node{ID: "a", Type: runtime.NodeTypeAction, Data: map[string]any{
		"action": "score",
		"args":   map[string]any{"base": "{{points}}"},
	}}

	result, err := x.Execute(context.Background(), node, newState(map[string]any{"points": 40}))

	require.NoError(t, err)
	assert.Equal(t, 40, result.Variables["score"])
}

func TestExecuteGoto(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "g", Type: runtime.NodeTypeGoto, Data: map[string]any{"targetNodeId": "elsewhere"}}

	result, err := x.Execute(context.Background(), node, newState(nil))

	require.NoError(t, err)
	assert.Equal(t, "elsewhere", result.NextNodeID)
}

func TestExecuteEmail(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "e", Type: runtime.NodeTypeEmail, Data: map[string]any{
		"to":      "{{email}}",
		"subject": "Welcome",
		"body":    "Hi {{name}}",
	}}

	result, err := x.Execute(context.Background(), node, newState(map[string]any{
		"email": "a@example.com",
		"name":  "Alice",
	}))

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"type":    "email",
		"to":      "a@example.com",
		"subject": "Welcome",
		"body":    "Hi Alice",
	}, result.Output)
}

func TestExecuteAPICall(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42, "status": "ok"}`))
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	node := &runtime.Node{ID: "api", Type: runtime.NodeTypeAPICall, Data: map[string]any{
		"endpoint":       srv.URL + "/users/{{userId}}",
		"method":         "GET",
		"headers":        map[string]any{"Authorization": "Bearer {{token}}"},
		"resultVariable": "user",
	}}

	result, err := x.Execute(context.Background(), node, newState(map[string]any{
		"userId": 7,
		"token":  "secret",
	}))

	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Equal(t, "/users/7", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, 200, result.Variables["user_status"])
	body, ok := result.Variables["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", body["status"])
}

func TestExecuteAPICallUnreachable(t *testing.T) {
	x := newTestExecutor(t)
	node := &runtime.Node{ID: "api", Type: runtime.NodeTypeAPICall, Data: map[string]any{
		"endpoint": "http://127.0.0.1:1/unreachable",
	}}

	result, err := x.Execute(context.Background(), node, newState(nil))

	require.NoError(t, err, "transport failures are execution errors, not panics")
	assert.Contains(t, result.Error, "api_call")
}

func TestExecuteWebhook(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	node := &runtime.Node{ID: "hook", Type: runtime.NodeTypeWebhook, Data: map[string]any{
		"url":     srv.URL,
		"payload": map[string]any{"plan": "{{plan}}"},
	}}

	result, err := x.Execute(context.Background(), node, newState(map[string]any{"plan": "pro"}))

	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Equal(t, "pro", gotBody["plan"])
}

func TestExecuteWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	node := &runtime.Node{ID: "hook", Type: runtime.NodeTypeWebhook, Data: map[string]any{"url": srv.URL}}

	result, err := x.Execute(context.Background(), node, newState(nil))

	require.NoError(t, err)
	assert.Contains(t, result.Error, "502")
}

// End-to-end: the engine driving the default executor through a flow with
// branching, suspension, and variable binding.
func TestEngineWithDefaultExecutor(t *testing.T) {
	flow := &runtime.Flow{
		ID: "signup",
		Nodes: []runtime.Node{
			{ID: "start", Type: runtime.NodeTypeStart, IsStart: true},
			{ID: "welcome", Type: runtime.NodeTypeMessage, Data: map[string]any{"content": "Hi {{name}}!"}},
			{ID: "plan", Type: runtime.NodeTypeQuestion, Data: map[string]any{
				"content":      "Which plan?",
				"options":      []any{"basic", "pro"},
				"variableName": "plan",
			}},
			{ID: "pro_msg", Type: runtime.NodeTypeMessage, Data: map[string]any{"content": "Pro it is."}},
			{ID: "basic_msg", Type: runtime.NodeTypeMessage, Data: map[string]any{"content": "Basic it is."}},
			{ID: "done", Type: runtime.NodeTypeEnd},
		},
		Edges: []runtime.Edge{
			{ID: "e1", Source: "start", Target: "welcome"},
			{ID: "e2", Source: "welcome", Target: "plan"},
			{ID: "e3", Source: "plan", Target: "pro_msg", Label: "pro"},
			{ID: "e4", Source: "plan", Target: "basic_msg", Label: "basic"},
			{ID: "e5", Source: "pro_msg", Target: "done"},
			{ID: "e6", Source: "basic_msg", Target: "done"},
		},
		Variables: []runtime.VariableDecl{
			{Name: "name", Type: "string", DefaultValue: "there"},
			{Name: "plan", Type: "string"},
		},
	}

	engine := runtime.NewEngine(runtime.NewEngineConfig(), newTestExecutor(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer engine.Close()

	run := engine.ExecuteFlow(context.Background(), flow, map[string]any{"name": "Alice"})
	require.True(t, run.Success)
	require.Equal(t, runtime.StatusWaitingInput, run.FinalState.Status)
	assert.Equal(t, "Which plan?", run.Message)
	require.Len(t, run.Outputs, 1)
	first, ok := run.Outputs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hi Alice!", first["content"])

	resumed := engine.ResumeFlow(context.Background(), run.ExecutionID, map[string]any{"plan": "pro"})
	require.True(t, resumed.Success, resumed.Error)
	assert.Equal(t, runtime.StatusCompleted, resumed.FinalState.Status)
	assert.Equal(t, "pro", resumed.FinalState.Variables["plan"])
	assert.Equal(t, "done", resumed.FinalState.CurrentNodeID)

	require.Len(t, resumed.Outputs, 2)
	branch, ok := resumed.Outputs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pro it is.", branch["content"])
}
