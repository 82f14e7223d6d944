package runtime

import "fmt"

// Execution-level failure codes.
const (
	ErrCodeNodeFailed    = "node_failed"
	ErrCodeNodeNotFound  = "node_not_found"
	ErrCodeMaxIterations = "max_iterations_exceeded"
	ErrCodeCancelled     = "context_cancelled"
)

// FlowError is the canonical execution-level failure: a stable code for
// machine handling, a human-readable message, and the node the run stopped
// at. Validation and lookup failures are not FlowErrors; they never reach
// the execution loop.
type FlowError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	NodeID  string `json:"nodeId,omitempty"`
}

func (e *FlowError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s at node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newFlowError(code, nodeID, message string) *FlowError {
	return &FlowError{Code: code, Message: message, NodeID: nodeID}
}
