package runtime

import (
	"sync"
	"time"
)

type storedExecution struct {
	state *ExecutionState
	flow  *Flow
}

// ExecutionStore is the engine's in-memory execution table. It is the only
// state shared across executions, so a single RWMutex is the whole locking
// discipline. Status transitions go through the store so the run loop and
// external cancellation never race on the state struct.
type ExecutionStore struct {
	mu         sync.RWMutex
	executions map[string]storedExecution
}

func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		executions: make(map[string]storedExecution),
	}
}

func (s *ExecutionStore) Put(state *ExecutionState, flow *Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[state.ID] = storedExecution{state: state, flow: flow}
}

// Get returns the live execution state for id, or nil if absent. The
// pointer is shared with the run loop; it is for engine-internal use only.
// External callers get a Snapshot.
func (s *ExecutionStore) Get(id string) *ExecutionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.executions[id].state
}

// Snapshot returns a copy of the execution state safe to share outside the
// engine: Variables, Context, and History are cloned so readers never hold
// maps a running execution is writing to. Nil if the execution is absent.
func (s *ExecutionStore) Snapshot(id string) *ExecutionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.executions[id]
	if !ok {
		return nil
	}
	return stored.state.snapshot()
}

// Update applies fn to a state under the store lock. Every mutation of
// live state during a run goes through here, so concurrent Snapshot calls
// never observe a partial write.
func (s *ExecutionStore) Update(state *ExecutionState, fn func(*ExecutionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(state)
}

// FlowFor returns the flow an execution was started with, for resume.
func (s *ExecutionStore) FlowFor(id string) *Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.executions[id].flow
}

// Delete removes an execution regardless of status. Returns false if the
// execution does not exist.
func (s *ExecutionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.executions[id]; !ok {
		return false
	}
	delete(s.executions, id)
	return true
}

func (s *ExecutionStore) StatusOf(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.executions[id]
	if !ok {
		return "", false
	}
	return stored.state.Status, true
}

func (s *ExecutionStore) SetStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.executions[id]; ok {
		stored.state.Status = status
	}
}

// Cancel marks an execution cancelled and stamps CancelledAt. Returns false
// if the execution does not exist. Cancellation is cooperative: an in-flight
// node finishes, and the run loop stops before the next one.
func (s *ExecutionStore) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.executions[id]
	if !ok {
		return false
	}
	now := time.Now()
	stored.state.Status = StatusCancelled
	stored.state.CancelledAt = &now
	return true
}

// Cleanup removes terminal executions whose StartedAt predates the cutoff
// and returns how many were removed. Running and waiting executions are
// exempt regardless of age.
func (s *ExecutionStore) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, stored := range s.executions {
		if stored.state.Status.Terminal() && stored.state.StartedAt.Before(cutoff) {
			delete(s.executions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored executions.
func (s *ExecutionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.executions)
}
