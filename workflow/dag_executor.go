package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DAGMetrics receives execution metrics from the DAG executor.
// internal/metrics.Collector satisfies this interface.
type DAGMetrics interface {
	RecordDAGRun(status string, elapsed time.Duration)
	RecordDAGNode(status string, elapsed time.Duration)
}

// DAGExecutor 依赖驱动的并行 DAG 执行器
// 调度以轮次进行：每轮计算就绪集（全部依赖成功、尚未启动的节点），
// 并发启动整轮并等待其全部结束，轮与轮之间是同步屏障。
// 同轮兄弟节点互相观察不到部分结果：节点值在轮屏障处才提交到 Context。
type DAGExecutor struct {
	name  string
	nodes map[string]*DAGNode
	// order preserves registration order for deterministic scheduling.
	order []string

	maxParallel  int
	runTimeout   time.Duration
	logger       *zap.Logger
	metrics      DAGMetrics
	historyStore *ExecutionHistoryStore
	tracer       trace.Tracer
}

// DAGOption configures a DAGExecutor.
type DAGOption func(*DAGExecutor)

// WithMaxParallel bounds how many ready nodes run concurrently within one
// round. Zero or negative means unbounded.
func WithMaxParallel(n int) DAGOption {
	return func(e *DAGExecutor) {
		e.maxParallel = n
	}
}

// WithRunTimeout bounds the wall-clock duration of one Execute call, ending
// stalled or hung runs. Zero means no timeout.
func WithRunTimeout(d time.Duration) DAGOption {
	return func(e *DAGExecutor) {
		e.runTimeout = d
	}
}

// WithDAGMetrics attaches a metrics recorder.
func WithDAGMetrics(m DAGMetrics) DAGOption {
	return func(e *DAGExecutor) {
		e.metrics = m
	}
}

// WithHistoryStore attaches a store that receives the per-run execution history.
func WithHistoryStore(s *ExecutionHistoryStore) DAGOption {
	return func(e *DAGExecutor) {
		e.historyStore = s
	}
}

// NewDAGExecutor 创建 DAG 执行器
func NewDAGExecutor(name string, logger *zap.Logger, opts ...DAGOption) *DAGExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &DAGExecutor{
		name:   name,
		nodes:  make(map[string]*DAGNode),
		logger: logger.With(zap.String("component", "dag_executor"), zap.String("dag", name)),
		tracer: otel.Tracer("flowcore/workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddNode registers a node. Duplicate names are a configuration error.
func (e *DAGExecutor) AddNode(node *DAGNode) error {
	if node == nil || node.Name == "" {
		return NewConfigurationError("node must have a name")
	}
	if node.Task == nil {
		return NewConfigurationError("node %s has no task", node.Name)
	}
	if _, exists := e.nodes[node.Name]; exists {
		return NewConfigurationError("duplicate node name: %s", node.Name)
	}
	e.nodes[node.Name] = node
	e.order = append(e.order, node.Name)
	return nil
}

// Nodes returns the registered node names in registration order.
func (e *DAGExecutor) Nodes() []string {
	names := make([]string, len(e.order))
	copy(names, e.order)
	return names
}

// Execute 运行整个 DAG
// 运行前先校验依赖可解析且无环（否则返回配置/环错误，不执行任何节点）。
// 任务失败不会从 Execute 逃逸：失败被捕获到对应节点结果上，其依赖者标记
// 为 skipped；存在失败或未到达节点时聚合状态为 failed。
func (e *DAGExecutor) Execute(ctx context.Context, wctx *Context) (*DAGResult, error) {
	if wctx == nil {
		return nil, NewConfigurationError("execution context cannot be nil")
	}
	if len(e.nodes) == 0 {
		return nil, NewConfigurationError("dag %s has no nodes", e.name)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}

	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	ctx, span := e.tracer.Start(ctx, "dag.execute",
		trace.WithAttributes(
			attribute.String("dag.name", e.name),
			attribute.String("session.id", wctx.SessionID),
		))
	defer span.End()

	e.resetRunState()
	history := NewExecutionHistory(wctx.SessionID, "dag:"+e.name)

	e.logger.Info("starting DAG execution",
		zap.String("session_id", wctx.SessionID),
		zap.Int("nodes", len(e.nodes)),
	)

	start := time.Now()
	rounds := 0
	for ctx.Err() == nil {
		e.propagateSkips()

		ready := e.readySet()
		if len(ready) == 0 {
			break
		}

		rounds++
		e.logger.Debug("scheduling round",
			zap.Int("round", rounds),
			zap.Int("ready", len(ready)),
		)

		e.runRound(ctx, wctx, ready, history)

		// Round barrier: commit successful values to the context so later
		// rounds (never siblings) can observe them.
		for _, node := range ready {
			if node.status == NodeStatusSuccess {
				wctx.Set(ResultKey(node.Name), node.value)
			}
		}
	}
	e.propagateSkips()

	result := e.buildResult(wctx.SessionID, time.Since(start))
	history.Complete(resultError(result))
	if e.historyStore != nil {
		e.historyStore.Save(history)
	}
	if e.metrics != nil {
		e.metrics.RecordDAGRun(string(result.Status), result.Elapsed)
	}

	e.logger.Info("DAG execution finished",
		zap.String("session_id", wctx.SessionID),
		zap.String("status", string(result.Status)),
		zap.Int("rounds", rounds),
		zap.Duration("elapsed", result.Elapsed),
		zap.Int("unreached", len(result.Unreached)),
	)

	return result, nil
}

// validate checks that every dependency resolves and the graph is acyclic.
func (e *DAGExecutor) validate() error {
	for _, name := range e.order {
		for _, dep := range e.nodes[name].DependsOn {
			if _, ok := e.nodes[dep]; !ok {
				return NewConfigurationError("node %s depends on unregistered node %s", name, dep)
			}
		}
	}
	return e.detectCycle()
}

// detectCycle runs DFS over the dependency relation and reports the full
// cycle path when a back edge is found.
func (e *DAGExecutor) detectCycle() error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)
	color := make(map[string]int, len(e.nodes))
	var stack []string

	var visit func(name string) *CycleError
	visit = func(name string) *CycleError {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range e.nodes[name].DependsOn {
			switch color[dep] {
			case white:
				if cerr := visit(dep); cerr != nil {
					return cerr
				}
			case gray:
				// Extract the cycle from the DFS stack.
				var path []string
				for i, n := range stack {
					if n == dep {
						path = append(path, stack[i:]...)
						break
					}
				}
				path = append(path, dep)
				return &CycleError{Path: path}
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for _, name := range e.order {
		if color[name] == white {
			if cerr := visit(name); cerr != nil {
				return cerr
			}
		}
	}
	return nil
}

// resetRunState returns every node to pending before a run.
func (e *DAGExecutor) resetRunState() {
	for _, node := range e.nodes {
		node.status = NodeStatusPending
		node.startedAt = time.Time{}
		node.duration = 0
		node.value = nil
		node.err = nil
	}
}

// propagateSkips marks pending nodes whose upstream failed or was skipped.
// Runs to fixpoint so skips propagate transitively.
func (e *DAGExecutor) propagateSkips() {
	for {
		changed := false
		for _, name := range e.order {
			node := e.nodes[name]
			if node.status != NodeStatusPending {
				continue
			}
			for _, dep := range node.DependsOn {
				st := e.nodes[dep].status
				if st == NodeStatusFailed || st == NodeStatusSkipped {
					node.status = NodeStatusSkipped
					changed = true
					break
				}
			}
		}
		if !changed {
			return
		}
	}
}

// readySet returns pending nodes whose dependencies all succeeded, in
// registration order.
func (e *DAGExecutor) readySet() []*DAGNode {
	var ready []*DAGNode
	for _, name := range e.order {
		node := e.nodes[name]
		if node.status != NodeStatusPending {
			continue
		}
		ok := true
		for _, dep := range node.DependsOn {
			if e.nodes[dep].status != NodeStatusSuccess {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, node)
		}
	}
	return ready
}

// runRound launches one ready set concurrently and waits for the whole batch.
// Task failures are captured on the node, never returned.
func (e *DAGExecutor) runRound(ctx context.Context, wctx *Context, ready []*DAGNode, history *ExecutionHistory) {
	g := new(errgroup.Group)
	if e.maxParallel > 0 {
		g.SetLimit(e.maxParallel)
	}

	for _, node := range ready {
		node.status = NodeStatusRunning
		g.Go(func() error {
			nctx, span := e.tracer.Start(ctx, "dag.node",
				trace.WithAttributes(attribute.String("node.name", node.Name)))
			defer span.End()

			rec := history.RecordNodeStart(node.Name)
			node.startedAt = time.Now()

			value, err := node.Task.Execute(nctx, wctx)
			node.duration = time.Since(node.startedAt)

			if err != nil {
				node.status = NodeStatusFailed
				node.err = err
				span.RecordError(err)
				e.logger.Error("node failed",
					zap.String("node", node.Name),
					zap.Duration("duration", node.duration),
					zap.Error(err),
				)
			} else {
				node.status = NodeStatusSuccess
				node.value = value
				e.logger.Debug("node completed",
					zap.String("node", node.Name),
					zap.Duration("duration", node.duration),
				)
			}

			history.RecordNodeEnd(rec, value, err)
			if e.metrics != nil {
				e.metrics.RecordDAGNode(string(node.status), node.duration)
			}
			return nil
		})
	}

	// Synchronization barrier: the round ends only once every task launched
	// in it has finished.
	_ = g.Wait()
}

// buildResult assembles the immutable run result.
func (e *DAGExecutor) buildResult(sessionID string, elapsed time.Duration) *DAGResult {
	result := &DAGResult{
		SessionID: sessionID,
		Status:    DAGStatusSuccess,
		Elapsed:   elapsed,
		Nodes:     make(map[string]*NodeResult, len(e.nodes)),
	}

	for _, name := range e.order {
		node := e.nodes[name]
		nr := &NodeResult{
			Name:      node.Name,
			Label:     node.Label,
			Status:    node.status,
			Value:     node.value,
			StartedAt: node.startedAt,
			Duration:  node.duration,
		}
		if node.err != nil {
			nr.Error = node.err.Error()
		}
		if node.status == NodeStatusPending {
			// Never scheduled: the run stalled or was cancelled.
			result.Unreached = append(result.Unreached, node.Name)
		}
		if node.status != NodeStatusSuccess {
			result.Status = DAGStatusFailed
		}
		result.Nodes[name] = nr
	}
	return result
}

// resultError converts a failed aggregate result into an error for the
// execution history record.
func resultError(r *DAGResult) error {
	if r.Status == DAGStatusSuccess {
		return nil
	}
	failed := make([]string, 0, len(r.Nodes))
	for _, nr := range r.Nodes {
		if nr.Status == NodeStatusFailed {
			failed = append(failed, nr.Name)
		}
	}
	sort.Strings(failed)
	return fmt.Errorf("dag run failed: %d node(s) failed %v, %d unreached", len(failed), failed, len(r.Unreached))
}
