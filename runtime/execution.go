package runtime

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is an execution's lifecycle state. waiting_input is
// terminal-for-now: the run is paused indefinitely pending external input.
type Status string

const (
	StatusRunning      Status = "running"
	StatusWaitingInput Status = "waiting_input"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
	StatusError        Status = "error"
)

// Terminal reports whether the execution is finished for good. Waiting
// executions are not terminal: they represent a live, possibly long-paused
// conversation and are never reaped.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}

// HistoryEntry records one executed node, append-only and in order.
type HistoryEntry struct {
	NodeID    string    `json:"nodeId"`
	NodeType  NodeType  `json:"nodeType"`
	Timestamp time.Time `json:"timestamp"`
	Result    any       `json:"result,omitempty"`
}

// ExecutionState is one stateful run of a flow. It is owned exclusively by
// the engine for its lifetime; collaborators receive it read-only and report
// changes back through NodeResult.
type ExecutionState struct {
	ID            string         `json:"id"`
	FlowID        string         `json:"flowId"`
	CurrentNodeID string         `json:"currentNodeId"`
	Variables     map[string]any `json:"variables"`
	Context       map[string]any `json:"context"`
	History       []HistoryEntry `json:"history"`
	Status        Status         `json:"status"`
	StartedAt     time.Time      `json:"startedAt"`
	CancelledAt   *time.Time     `json:"cancelledAt,omitempty"`

	// PendingInput holds the input supplied to the most recent resume call.
	// The engine clears it after the resumed node has run, so input is
	// consumed exactly once even when a loop revisits the same node.
	PendingInput map[string]any `json:"-"`
}

// snapshot copies the state for handing outside the engine. The maps and
// the history slice are cloned; the values inside them are shared.
func (st *ExecutionState) snapshot() *ExecutionState {
	copied := *st
	copied.Variables = maps.Clone(st.Variables)
	copied.Context = maps.Clone(st.Context)
	copied.History = slices.Clone(st.History)
	copied.PendingInput = nil
	return &copied
}

// NewExecutionID composes a time-and-random execution id:
// exec_<epoch-millis>_<random-suffix>. Collision-resistant enough for
// in-memory map keys.
func NewExecutionID() string {
	return fmt.Sprintf("exec_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func newExecutionState(flow *Flow, startNodeID string, callerContext map[string]any) *ExecutionState {
	ctx := make(map[string]any, len(callerContext))
	for k, v := range callerContext {
		ctx[k] = v
	}
	return &ExecutionState{
		ID:            NewExecutionID(),
		FlowID:        flow.ID,
		CurrentNodeID: startNodeID,
		Variables:     flow.InitialVariables(callerContext),
		Context:       ctx,
		History:       []HistoryEntry{},
		Status:        StatusRunning,
		StartedAt:     time.Now(),
	}
}
