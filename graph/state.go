package graph

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one completed node visit, in execution order.
type HistoryEntry struct {
	Node string `json:"node"`
	// Event carries an optional node-emitted audit tag for this visit.
	Event string    `json:"event,omitempty"`
	At    time.Time `json:"at"`
}

// NodeError records a node failure observed during a run.
type NodeError struct {
	Node  string    `json:"node"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

// State 状态图的共享状态
// 节点间传递的唯一载体：键值数据、访问历史、控制标志。单次运行内由
// 执行循环串行访问，不做内部加锁。
type State struct {
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data"`
	// History records every completed node visit in order.
	History []HistoryEntry `json:"history"`
	// NextNode overrides routing once: the execution loop consumes it in
	// preference to the node's router. Resume after an interrupt also
	// re-enters here.
	NextNode string `json:"next_node,omitempty"`
	// Finished marks the run as complete; the loop stops before dispatching
	// another node.
	Finished bool `json:"finished"`
	// InterruptRequired pauses the run at the next node boundary.
	InterruptRequired bool   `json:"interrupt_required"`
	InterruptMessage  string `json:"interrupt_message,omitempty"`
	// Errors accumulates node failures across the run, including those the
	// error handler recovered from.
	Errors    []NodeError `json:"errors,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`

	// pendingEvent holds an event emitted by the currently running node; the
	// loop attaches it to the history entry for that visit.
	pendingEvent string
}

// NewState 创建初始状态
func NewState() *State {
	return &State{
		SessionID: uuid.NewString(),
		Data:      make(map[string]any),
		UpdatedAt: time.Now(),
	}
}

// Set stores a value under key.
func (s *State) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
	s.UpdatedAt = time.Now()
}

// Get retrieves a value by key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// GetString retrieves a string value by key; missing or non-string yields "".
func (s *State) GetString(key string) string {
	if v, ok := s.Data[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt retrieves an int value by key; missing or non-int yields 0.
func (s *State) GetInt(key string) int {
	if v, ok := s.Data[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

// EmitEvent tags the current node visit with an audit event. The tag is
// attached to this visit's history entry when the node returns.
func (s *State) EmitEvent(event string) {
	s.pendingEvent = event
}

// RequestInterrupt asks the execution loop to pause at the next node boundary.
func (s *State) RequestInterrupt(message string) {
	s.InterruptRequired = true
	s.InterruptMessage = message
}

// ClearInterrupt clears a pending interrupt so the run can be resumed.
func (s *State) ClearInterrupt() {
	s.InterruptRequired = false
	s.InterruptMessage = ""
}

// Finish marks the run as complete.
func (s *State) Finish() {
	s.Finished = true
	s.UpdatedAt = time.Now()
}

// RecordError appends a node failure to the error log.
func (s *State) RecordError(node string, err error) {
	s.Errors = append(s.Errors, NodeError{
		Node:  node,
		Error: err.Error(),
		At:    time.Now(),
	})
	s.UpdatedAt = time.Now()
}

// appendHistory records a completed node visit and consumes any pending event.
func (s *State) appendHistory(node string) {
	s.History = append(s.History, HistoryEntry{
		Node:  node,
		Event: s.pendingEvent,
		At:    time.Now(),
	})
	s.pendingEvent = ""
	s.UpdatedAt = time.Now()
}

// VisitCount returns how many times a node appears in the history.
func (s *State) VisitCount(node string) int {
	count := 0
	for _, h := range s.History {
		if h.Node == node {
			count++
		}
	}
	return count
}
