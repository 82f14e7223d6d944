package executor

import (
	"context"

	"github.com/BDNK1/botflow/runtime"
)

// ActionFunc is the extension point for action nodes. Handlers receive the
// node's args with expression templates already resolved and return variable
// bindings to merge into the execution scope.
type ActionFunc func(ctx context.Context, args map[string]any, state *runtime.ExecutionState) (map[string]any, error)

// RegisterAction binds a handler to an action name. Action nodes whose
// action matches a registered name invoke the handler; unregistered actions
// fall through to a plain output payload so channels can react to them
// externally. Registration is not safe for concurrent use; do it at startup.
func (x *DefaultExecutor) RegisterAction(name string, fn ActionFunc) {
	x.actions[name] = fn
}

func (x *DefaultExecutor) runAction(ctx context.Context, data *runtime.ActionData, state *runtime.ExecutionState) (*runtime.NodeResult, error) {
	args, _ := evalValue(data.Args, state.Variables).(map[string]any)

	fn, ok := x.actions[data.Action]
	if !ok {
		return &runtime.NodeResult{
			Success: true,
			Output: map[string]any{
				"type":   "action",
				"action": data.Action,
				"args":   args,
			},
		}, nil
	}

	vars, err := fn(ctx, args, state)
	if err != nil {
		return &runtime.NodeResult{Error: err.Error()}, nil
	}
	return &runtime.NodeResult{
		Success:   true,
		Variables: vars,
		Output: map[string]any{
			"type":   "action",
			"action": data.Action,
		},
	}, nil
}
