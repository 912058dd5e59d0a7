package workflow

import (
	"time"
)

// NodeStatus represents the terminal or in-flight status of a DAG node.
type NodeStatus string

const (
	// NodeStatusPending indicates the node has not been scheduled yet.
	NodeStatusPending NodeStatus = "pending"
	// NodeStatusRunning indicates the node is executing in the current round.
	NodeStatusRunning NodeStatus = "running"
	// NodeStatusSuccess indicates the node completed successfully.
	NodeStatusSuccess NodeStatus = "success"
	// NodeStatusFailed indicates the node's task returned an error.
	NodeStatusFailed NodeStatus = "failed"
	// NodeStatusSkipped indicates an upstream dependency failed or was skipped,
	// so the node was never executed.
	NodeStatusSkipped NodeStatus = "skipped"
)

// DAGStatus is the aggregate status of one DAG run.
type DAGStatus string

const (
	// DAGStatusSuccess indicates every node succeeded.
	DAGStatusSuccess DAGStatus = "success"
	// DAGStatusFailed indicates at least one node failed, was skipped, or was
	// unreached due to a stall, even if independent branches succeeded.
	DAGStatusFailed DAGStatus = "failed"
)

// DAGNode DAG 节点
// 任务仅在其声明的全部依赖成功后才会启动。
type DAGNode struct {
	// Name is the unique node name within one executor.
	Name string
	// Label is a human-readable description used in logs and results.
	Label string
	// Task is the unit of work; it receives the run's *Context as input.
	Task Step
	// DependsOn lists the names of nodes that must succeed first.
	DependsOn []string

	// Run state, owned by the executor for the duration of one Execute call.
	status    NodeStatus
	startedAt time.Time
	duration  time.Duration
	value     any
	err       error
}

// Status returns the node's status from the most recent run.
func (n *DAGNode) Status() NodeStatus {
	return n.status
}

// NodeResult 单个节点的运行结果
type NodeResult struct {
	Name      string        `json:"name"`
	Label     string        `json:"label,omitempty"`
	Status    NodeStatus    `json:"status"`
	Value     any           `json:"value,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// DAGResult DAG 运行的聚合结果
// Execute 返回后不可变。
type DAGResult struct {
	// SessionID is taken from the run's Context.
	SessionID string `json:"session_id"`
	// Status is DAGStatusSuccess iff every node succeeded.
	Status DAGStatus `json:"status"`
	// Elapsed is the wall-clock duration of the whole run.
	Elapsed time.Duration `json:"elapsed"`
	// Nodes maps node name to its outcome: returned value or captured error.
	Nodes map[string]*NodeResult `json:"nodes"`
	// Unreached lists nodes that were never scheduled because the run stalled
	// (an upstream never resolved cleanly) or was cancelled.
	Unreached []string `json:"unreached,omitempty"`
}

// Succeeded reports whether the run completed with every node successful.
func (r *DAGResult) Succeeded() bool {
	return r.Status == DAGStatusSuccess
}

// Failed returns the results of all failed nodes.
func (r *DAGResult) Failed() []*NodeResult {
	var failed []*NodeResult
	for _, nr := range r.Nodes {
		if nr.Status == NodeStatusFailed {
			failed = append(failed, nr)
		}
	}
	return failed
}

// Skipped returns the results of all skipped nodes.
func (r *DAGResult) Skipped() []*NodeResult {
	var skipped []*NodeResult
	for _, nr := range r.Nodes {
		if nr.Status == NodeStatusSkipped {
			skipped = append(skipped, nr)
		}
	}
	return skipped
}

// ResultKey returns the Context data-bag key under which a node's value is
// committed at the end of its scheduling round.
func ResultKey(node string) string {
	return "result:" + node
}
