package workflow

import (
	"sync"
	"time"
)

// ExecutionStatus represents the status of a recorded execution.
type ExecutionStatus string

const (
	// ExecutionStatusRunning indicates the execution is in progress.
	ExecutionStatusRunning ExecutionStatus = "running"
	// ExecutionStatusCompleted indicates the execution completed successfully.
	ExecutionStatusCompleted ExecutionStatus = "completed"
	// ExecutionStatusFailed indicates the execution failed.
	ExecutionStatusFailed ExecutionStatus = "failed"
)

// NodeExecution records the execution of a single node.
type NodeExecution struct {
	Node      string          `json:"node"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Duration  time.Duration   `json:"duration"`
	Status    ExecutionStatus `json:"status"`
	Output    any             `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ExecutionHistory records the complete execution path of one run.
type ExecutionHistory struct {
	SessionID string           `json:"session_id"`
	Engine    string           `json:"engine"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	Status    ExecutionStatus  `json:"status"`
	Nodes     []*NodeExecution `json:"nodes"`
	Error     string           `json:"error,omitempty"`
	mu        sync.RWMutex
}

// NewExecutionHistory creates an execution history for one run.
func NewExecutionHistory(sessionID, engine string) *ExecutionHistory {
	return &ExecutionHistory{
		SessionID: sessionID,
		Engine:    engine,
		StartTime: time.Now(),
		Status:    ExecutionStatusRunning,
		Nodes:     make([]*NodeExecution, 0),
	}
}

// RecordNodeStart records the start of a node execution.
func (h *ExecutionHistory) RecordNodeStart(node string) *NodeExecution {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := &NodeExecution{
		Node:      node,
		StartTime: time.Now(),
		Status:    ExecutionStatusRunning,
	}
	h.Nodes = append(h.Nodes, rec)
	return rec
}

// RecordNodeEnd records the end of a node execution.
func (h *ExecutionHistory) RecordNodeEnd(rec *NodeExecution, output any, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec.EndTime = time.Now()
	rec.Duration = rec.EndTime.Sub(rec.StartTime)
	rec.Output = output

	if err != nil {
		rec.Status = ExecutionStatusFailed
		rec.Error = err.Error()
	} else {
		rec.Status = ExecutionStatusCompleted
	}
}

// Complete marks the execution as finished.
func (h *ExecutionHistory) Complete(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.EndTime = time.Now()
	h.Duration = h.EndTime.Sub(h.StartTime)

	if err != nil {
		h.Status = ExecutionStatusFailed
		h.Error = err.Error()
	} else {
		h.Status = ExecutionStatusCompleted
	}
}

// GetNodes returns a copy of the node execution records.
func (h *ExecutionHistory) GetNodes() []*NodeExecution {
	h.mu.RLock()
	defer h.mu.RUnlock()

	nodes := make([]*NodeExecution, len(h.Nodes))
	copy(nodes, h.Nodes)
	return nodes
}

// GetNodeByName returns the first execution record for a node.
func (h *ExecutionHistory) GetNodeByName(node string) *NodeExecution {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, rec := range h.Nodes {
		if rec.Node == node {
			return rec
		}
	}
	return nil
}

// ExecutionHistoryStore stores and queries execution histories in memory.
// Durable storage is deliberately out of scope; the store lives for the
// process lifetime only.
type ExecutionHistoryStore struct {
	histories map[string]*ExecutionHistory
	mu        sync.RWMutex
}

// NewExecutionHistoryStore creates an empty history store.
func NewExecutionHistoryStore() *ExecutionHistoryStore {
	return &ExecutionHistoryStore{
		histories: make(map[string]*ExecutionHistory),
	}
}

// Save saves an execution history, keyed by session ID.
func (s *ExecutionHistoryStore) Save(history *ExecutionHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[history.SessionID] = history
}

// Get retrieves an execution history by session ID.
func (s *ExecutionHistoryStore) Get(sessionID string) (*ExecutionHistory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.histories[sessionID]
	return h, ok
}

// ListByEngine returns all histories recorded by a named engine.
func (s *ExecutionHistoryStore) ListByEngine(engine string) []*ExecutionHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*ExecutionHistory
	for _, h := range s.histories {
		if h.Engine == engine {
			result = append(result, h)
		}
	}
	return result
}

// ListByStatus returns all histories with the given status.
func (s *ExecutionHistoryStore) ListByStatus(status ExecutionStatus) []*ExecutionHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*ExecutionHistory
	for _, h := range s.histories {
		if h.Status == status {
			result = append(result, h)
		}
	}
	return result
}
