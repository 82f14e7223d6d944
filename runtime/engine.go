package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNodeNotFound signals that execution reached a node id absent from the
// flow. This is a programming invariant violation (a malformed graph got
// past validation), so unlike lookup misses it surfaces as an error.
type ErrNodeNotFound struct {
	NodeID string
	FlowID string
}

func (e *ErrNodeNotFound) Error() string {
	return fmt.Sprintf("node %s not found in flow %s", e.NodeID, e.FlowID)
}

// ExecuteResult is the outcome of starting a flow. Outputs collects every
// node output produced before the run completed, suspended, or failed, in
// execution order; Message carries the prompt of a node that suspended
// waiting for input. Error holds the failure message; FlowError carries
// the structured form for execution-level failures.
type ExecuteResult struct {
	Success     bool            `json:"success"`
	ExecutionID string          `json:"executionId,omitempty"`
	FinalState  *ExecutionState `json:"finalState,omitempty"`
	Outputs     []any           `json:"outputs"`
	Message     string          `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
	FlowError   *FlowError      `json:"flowError,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
}

// ResumeResult is the outcome of resuming a suspended execution.
type ResumeResult struct {
	Success    bool            `json:"success"`
	FinalState *ExecutionState `json:"finalState,omitempty"`
	Outputs    []any           `json:"outputs"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	FlowError  *FlowError      `json:"flowError,omitempty"`
}

// RunResult is the outcome of one pass through the execution loop.
type RunResult struct {
	Status  Status     `json:"status"`
	Message string     `json:"message,omitempty"`
	Err     *FlowError `json:"error,omitempty"`
	Outputs []any      `json:"outputs"`
}

// Engine orchestrates flow execution: it validates, initializes variable
// scope, runs the node loop, delegates side effects to the NodeExecutor,
// resolves the next node, and manages suspend/resume and cancellation.
// One Engine instance owns one execution store; construct, run many
// executions, clean up periodically, then Close.
type Engine struct {
	cfg      EngineConfig
	l        *slog.Logger
	executor NodeExecutor
	store    *ExecutionStore
	done     chan struct{}
}

func NewEngine(cfg EngineConfig, executor NodeExecutor, l *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		l:        l,
		executor: executor,
		store:    NewExecutionStore(),
		done:     make(chan struct{}),
	}
}

// ExecuteFlow validates the flow and, if valid, creates an execution and
// runs it until it completes, errors, or suspends waiting for input. An
// invalid flow returns the validation errors without creating any execution
// state or touching the node executor.
func (e *Engine) ExecuteFlow(ctx context.Context, flow *Flow, callerContext map[string]any) ExecuteResult {
	validation := ValidateFlow(flow)
	if !validation.Valid {
		return ExecuteResult{
			Success: false,
			Error:   "Flow validation failed",
			Errors:  validation.Errors,
		}
	}

	start := flow.StartNode()
	state := newExecutionState(flow, start.ID, callerContext)
	e.store.Put(state, flow)

	e.l.Info("starting flow execution",
		"flow", flow.ID,
		"execution", state.ID,
		"startNode", start.ID)

	run := e.run(ctx, flow, state)
	result := ExecuteResult{
		Success:     run.Status != StatusError,
		ExecutionID: state.ID,
		FinalState:  e.store.Snapshot(state.ID),
		Outputs:     run.Outputs,
		Message:     run.Message,
	}
	if run.Err != nil {
		result.Error = run.Err.Message
		result.FlowError = run.Err
	}
	return result
}

// ResumeFlow continues a suspended execution with new input. The input map
// is merged additively into the execution context and handed to the node
// executor as pending input; the loop re-enters at currentNodeId, which is
// the node that previously signalled waitForInput.
func (e *Engine) ResumeFlow(ctx context.Context, executionID string, input map[string]any) ResumeResult {
	state := e.store.Get(executionID)
	if state == nil {
		return ResumeResult{Success: false, Error: "Execution not found"}
	}
	if status, _ := e.store.StatusOf(executionID); status != StatusWaitingInput {
		return ResumeResult{Success: false, Error: "Execution is not waiting for input"}
	}

	flow := e.store.FlowFor(executionID)

	e.store.Update(state, func(state *ExecutionState) {
		for k, v := range input {
			state.Context[k] = v
		}
		state.PendingInput = input
	})
	e.store.SetStatus(executionID, StatusRunning)

	e.l.Info("resuming flow execution",
		"flow", state.FlowID,
		"execution", state.ID,
		"node", state.CurrentNodeID)

	run := e.run(ctx, flow, state)
	result := ResumeResult{
		Success:    run.Status != StatusError,
		FinalState: e.store.Snapshot(executionID),
		Outputs:    run.Outputs,
		Message:    run.Message,
	}
	if run.Err != nil {
		result.Error = run.Err.Message
		result.FlowError = run.Err
	}
	return result
}

// ExecuteNode runs a single node through the executor, merges any reported
// variable bindings into the state, and appends a history entry.
func (e *Engine) ExecuteNode(ctx context.Context, flow *Flow, nodeID string, state *ExecutionState) (*NodeResult, error) {
	node := flow.NodeByID(nodeID)
	if node == nil {
		return nil, &ErrNodeNotFound{NodeID: nodeID, FlowID: flow.ID}
	}

	result, err := e.executor.Execute(ctx, node, state)
	if err != nil {
		return nil, fmt.Errorf("executing node %s: %w", nodeID, err)
	}
	if result == nil {
		result = &NodeResult{Success: true}
	}

	// Mutate under the store lock so concurrent snapshot reads stay safe.
	e.store.Update(state, func(state *ExecutionState) {
		for k, v := range result.Variables {
			state.Variables[k] = v
		}
		state.History = append(state.History, HistoryEntry{
			NodeID:    node.ID,
			NodeType:  node.Type,
			Timestamp: time.Now(),
			Result:    result.Output,
		})
	})

	return result, nil
}

// NextNode resolves where execution goes after nodeID. Resolution order:
// explicit nextNodeId from the result, then an outgoing edge whose label
// matches the selected option, then the first edge condition that evaluates
// true in declaration order, then the edge labeled "default", then the
// single outgoing edge. An empty return means execution ends, either at a
// true end node or a dead end.
func (e *Engine) NextNode(flow *Flow, nodeID string, result *NodeResult, state *ExecutionState) string {
	if result != nil && result.NextNodeID != "" {
		return result.NextNodeID
	}

	var outgoing []*Edge
	for i := range flow.Edges {
		if flow.Edges[i].Source == nodeID {
			outgoing = append(outgoing, &flow.Edges[i])
		}
	}
	if len(outgoing) == 0 {
		return ""
	}

	if result != nil && result.SelectedOption != "" {
		for _, edge := range outgoing {
			if edge.Label == result.SelectedOption {
				return edge.Target
			}
		}
	}

	for _, edge := range outgoing {
		if edge.Condition != nil && EvaluateCondition(*edge.Condition, state.Variables) {
			return edge.Target
		}
	}

	for _, edge := range outgoing {
		if edge.Label == "default" {
			return edge.Target
		}
	}

	if len(outgoing) == 1 {
		return outgoing[0].Target
	}
	return ""
}

// run is the iteration loop. The cap guards against cyclic graphs with no
// input wait and no terminal path. Node execution is strictly sequential
// for one execution so history and variable mutation order stay consistent.
func (e *Engine) run(ctx context.Context, flow *Flow, state *ExecutionState) RunResult {
	outputs := []any{}

	for i := 0; i < e.cfg.MaxIterations; i++ {
		if status, ok := e.store.StatusOf(state.ID); ok && status == StatusCancelled {
			e.l.Info("execution cancelled", "execution", state.ID, "node", state.CurrentNodeID)
			return RunResult{Status: StatusCancelled, Outputs: outputs}
		}
		if err := ctx.Err(); err != nil {
			e.store.SetStatus(state.ID, StatusError)
			return RunResult{
				Status:  StatusError,
				Err:     newFlowError(ErrCodeCancelled, state.CurrentNodeID, err.Error()),
				Outputs: outputs,
			}
		}

		node := flow.NodeByID(state.CurrentNodeID)
		result, err := e.ExecuteNode(ctx, flow, state.CurrentNodeID, state)
		e.store.Update(state, func(state *ExecutionState) {
			state.PendingInput = nil
		})
		if err != nil {
			e.store.SetStatus(state.ID, StatusError)
			code := ErrCodeNodeFailed
			var notFound *ErrNodeNotFound
			if errors.As(err, &notFound) {
				code = ErrCodeNodeNotFound
			}
			return RunResult{
				Status:  StatusError,
				Err:     newFlowError(code, state.CurrentNodeID, err.Error()),
				Outputs: outputs,
			}
		}

		if result.Error != "" {
			e.l.Error("node execution failed",
				"execution", state.ID,
				"node", state.CurrentNodeID,
				"error", result.Error)
			e.store.SetStatus(state.ID, StatusError)
			return RunResult{
				Status:  StatusError,
				Err:     newFlowError(ErrCodeNodeFailed, state.CurrentNodeID, result.Error),
				Outputs: outputs,
			}
		}

		if result.Output != nil {
			outputs = append(outputs, result.Output)
		}

		if result.WaitForInput {
			// currentNodeId stays put so resume re-enters the same node.
			e.store.SetStatus(state.ID, StatusWaitingInput)
			return RunResult{Status: StatusWaitingInput, Message: result.Message, Outputs: outputs}
		}

		if node.Type == NodeTypeEnd {
			e.store.SetStatus(state.ID, StatusCompleted)
			return RunResult{Status: StatusCompleted, Outputs: outputs}
		}

		next := e.NextNode(flow, state.CurrentNodeID, result, state)
		if next == "" {
			e.store.SetStatus(state.ID, StatusCompleted)
			return RunResult{Status: StatusCompleted, Outputs: outputs}
		}
		e.store.Update(state, func(state *ExecutionState) {
			state.CurrentNodeID = next
		})
	}

	e.l.Error("iteration cap exceeded", "execution", state.ID, "flow", flow.ID)
	e.store.SetStatus(state.ID, StatusError)
	return RunResult{
		Status:  StatusError,
		Err:     newFlowError(ErrCodeMaxIterations, state.CurrentNodeID, "Maximum iterations exceeded"),
		Outputs: outputs,
	}
}

// CancelExecution marks an execution cancelled. Returns false if the
// execution does not exist. Available at any point, including while the
// execution is waiting for input.
func (e *Engine) CancelExecution(executionID string) bool {
	return e.store.Cancel(executionID)
}

// GetExecutionState returns a snapshot of an execution's state, or nil.
// The copy is detached: a run mutating the live state never races with a
// caller reading or marshalling the returned value.
func (e *Engine) GetExecutionState(executionID string) *ExecutionState {
	return e.store.Snapshot(executionID)
}

// DeleteExecution removes an execution from the store regardless of its
// status. Returns false if the execution does not exist.
func (e *Engine) DeleteExecution(executionID string) bool {
	return e.store.Delete(executionID)
}

// CleanupExecutions reaps terminal executions older than maxAge and returns
// how many were removed.
func (e *Engine) CleanupExecutions(maxAge time.Duration) int {
	return e.store.Cleanup(maxAge)
}

// StartCleanup launches the periodic reaper. Stop it with Close.
func (e *Engine) StartCleanup() {
	go func() {
		ticker := time.NewTicker(e.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := e.CleanupExecutions(e.cfg.Retention); removed > 0 {
					e.l.Info("cleaned up executions", "removed", removed)
				}
			case <-e.done:
				return
			}
		}
	}()
}

// Close stops the periodic cleanup goroutine.
func (e *Engine) Close() {
	close(e.done)
}
