package runtime

import "context"

// NodeResult is what a node executor reports back. The executor never
// mutates ExecutionState directly; every state change flows through this
// object and is applied by the engine.
type NodeResult struct {
	Success        bool           `json:"success"`
	Output         any            `json:"output,omitempty"`
	Variables      map[string]any `json:"variables,omitempty"`
	WaitForInput   bool           `json:"waitForInput,omitempty"`
	Message        string         `json:"message,omitempty"`
	NextNodeID     string         `json:"nextNodeId,omitempty"`
	SelectedOption string         `json:"selectedOption,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// NodeExecutor performs a single node's side effect (sending a message,
// calling an API, binding input). Implementations must be idempotent-safe
// to call again on resume for nodes that set WaitForInput, and must treat
// the state as read-only.
type NodeExecutor interface {
	Execute(ctx context.Context, node *Node, state *ExecutionState) (*NodeResult, error)
}
