package graph

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcore/workflow"
)

const (
	// End is the routing sentinel that terminates a run. It is never a
	// registered node name.
	End = "__end__"
	// ErrorHandler is the reserved node name that receives control when a
	// node returns an error.
	ErrorHandler = "error_handler"
)

// DefaultMaxIterations bounds runaway cycles when no explicit limit is set.
const DefaultMaxIterations = 100

// Node 状态归约节点
// 接收当前状态并返回演化后的状态。返回 nil 状态视为原状态未变。
type Node interface {
	// Name 返回节点名称
	Name() string
	// Run reduces the state.
	Run(ctx context.Context, state *State) (*State, error)
}

// NodeFunc 节点函数类型
type NodeFunc func(ctx context.Context, state *State) (*State, error)

// FuncNode 函数节点
type FuncNode struct {
	name string
	fn   NodeFunc
}

// NewFuncNode 创建函数节点
func NewFuncNode(name string, fn NodeFunc) *FuncNode {
	return &FuncNode{name: name, fn: fn}
}

func (n *FuncNode) Name() string {
	return n.name
}

func (n *FuncNode) Run(ctx context.Context, state *State) (*State, error) {
	return n.fn(ctx, state)
}

// Router 路由器接口
// 在节点完成后基于状态内容决定下一个节点。返回 End 终止运行。
type Router interface {
	// Route 路由决策，返回下一个节点名
	Route(ctx context.Context, state *State) (string, error)
}

// RouterFunc 路由函数类型
type RouterFunc func(ctx context.Context, state *State) (string, error)

// FuncRouter 函数路由器
type FuncRouter struct {
	fn RouterFunc
}

// NewFuncRouter 创建函数路由器
func NewFuncRouter(fn RouterFunc) *FuncRouter {
	return &FuncRouter{fn: fn}
}

func (r *FuncRouter) Route(ctx context.Context, state *State) (string, error) {
	return r.fn(ctx, state)
}

// GraphMetrics receives execution metrics from the state graph.
// internal/metrics.Collector satisfies this interface.
type GraphMetrics interface {
	RecordGraphRun(status string, elapsed time.Duration)
	RecordGraphIteration(node string)
	RecordInterrupt(node string)
}

// StateGraph 带环状态图
// 节点注册表加每节点路由器。环是合法结构，终止由运行时状态决定，
// MaxIterations 是最后的安全网。
type StateGraph struct {
	name    string
	nodes   map[string]Node
	routers map[string]Router
	entry   string

	maxIterations int
	logger        *zap.Logger
	metrics       GraphMetrics
	tracer        trace.Tracer
}

// GraphOption configures a StateGraph.
type GraphOption func(*StateGraph)

// WithMaxIterations overrides the safety bound on node dispatches per run.
func WithMaxIterations(n int) GraphOption {
	return func(g *StateGraph) {
		if n > 0 {
			g.maxIterations = n
		}
	}
}

// WithGraphMetrics attaches a metrics recorder.
func WithGraphMetrics(m GraphMetrics) GraphOption {
	return func(g *StateGraph) {
		g.metrics = m
	}
}

// NewStateGraph 创建状态图
func NewStateGraph(name string, logger *zap.Logger, opts ...GraphOption) *StateGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &StateGraph{
		name:          name,
		nodes:         make(map[string]Node),
		routers:       make(map[string]Router),
		maxIterations: DefaultMaxIterations,
		logger:        logger.With(zap.String("component", "state_graph"), zap.String("graph", name)),
		tracer:        otel.Tracer("flowcore/graph"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode registers a node. Duplicate names and the End sentinel are
// configuration errors; ErrorHandler is a valid name and marks the node as
// the error fallback.
func (g *StateGraph) AddNode(node Node) error {
	if node == nil || node.Name() == "" {
		return workflow.NewConfigurationError("graph node must have a name")
	}
	if node.Name() == End {
		return workflow.NewConfigurationError("%s is a reserved sentinel, not a node name", End)
	}
	if _, exists := g.nodes[node.Name()]; exists {
		return workflow.NewConfigurationError("duplicate node name: %s", node.Name())
	}
	g.nodes[node.Name()] = node
	return nil
}

// AddNodeFunc registers a function node.
func (g *StateGraph) AddNodeFunc(name string, fn NodeFunc) error {
	return g.AddNode(NewFuncNode(name, fn))
}

// SetEntry sets the node where a fresh run starts.
func (g *StateGraph) SetEntry(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return workflow.NewConfigurationError("entry node %s is not registered", name)
	}
	g.entry = name
	return nil
}

// SetRouter attaches a router to a node's outgoing edge.
func (g *StateGraph) SetRouter(node string, router Router) error {
	if _, ok := g.nodes[node]; !ok {
		return workflow.NewConfigurationError("cannot route from unregistered node %s", node)
	}
	g.routers[node] = router
	return nil
}

// SetRouterFunc attaches a routing function to a node's outgoing edge.
func (g *StateGraph) SetRouterFunc(node string, fn RouterFunc) error {
	return g.SetRouter(node, NewFuncRouter(fn))
}

// Execute 运行状态图直到终止
// 新状态从入口节点开始；携带 NextNode 的状态（中断恢复）从该节点继续。
// 节点错误转交 error_handler 节点处理（若注册），否则记录到状态错误
// 列表后结束运行——运行时失败不会从 Execute 逃逸，只有前置配置错误和
// 上下文取消除外。中断在节点边界生效：返回的状态携带恢复点。
func (g *StateGraph) Execute(ctx context.Context, state *State) (*State, error) {
	if state == nil {
		return nil, workflow.NewConfigurationError("state cannot be nil")
	}
	if len(g.nodes) == 0 {
		return nil, workflow.NewConfigurationError("graph %s has no nodes", g.name)
	}

	current := state.NextNode
	if current != "" {
		// Resume: consume the saved position so it is not re-entered twice.
		state.NextNode = ""
		state.ClearInterrupt()
	} else {
		if g.entry == "" {
			return nil, workflow.NewConfigurationError("graph %s has no entry node", g.name)
		}
		current = g.entry
	}

	ctx, span := g.tracer.Start(ctx, "graph.execute",
		trace.WithAttributes(
			attribute.String("graph.name", g.name),
			attribute.String("session.id", state.SessionID),
		))
	defer span.End()

	g.logger.Info("starting graph execution",
		zap.String("session_id", state.SessionID),
		zap.String("start_node", current),
	)

	start := time.Now()
	iterations := 0

	for {
		if err := ctx.Err(); err != nil {
			g.recordRun("cancelled", start)
			return state, err
		}
		if state.Finished {
			break
		}
		if state.InterruptRequired {
			// Pause at the node boundary; the un-run node is the resume point.
			state.NextNode = current
			g.logger.Info("graph interrupted",
				zap.String("session_id", state.SessionID),
				zap.String("resume_node", current),
				zap.String("message", state.InterruptMessage),
			)
			if g.metrics != nil {
				g.metrics.RecordInterrupt(current)
			}
			g.recordRun("interrupted", start)
			return state, nil
		}
		if iterations >= g.maxIterations {
			err := fmt.Errorf("exceeded %d iterations without terminating", g.maxIterations)
			state.RecordError(current, err)
			state.Finish()
			g.logger.Error("graph exceeded iteration bound",
				zap.String("node", current),
				zap.Int("max_iterations", g.maxIterations),
			)
			g.recordRun("failed", start)
			return state, nil
		}

		node, ok := g.nodes[current]
		if !ok {
			err := fmt.Errorf("routed to unregistered node %s", current)
			if stop := g.handleFailure(span, state, current, err, &current); stop {
				g.recordRun("failed", start)
				return state, nil
			}
			continue
		}

		iterations++
		if g.metrics != nil {
			g.metrics.RecordGraphIteration(current)
		}

		next, err := g.runNode(ctx, node, state)
		if err != nil {
			if stop := g.handleFailure(span, state, current, err, &current); stop {
				g.recordRun("failed", start)
				return state, nil
			}
			continue
		}
		if next != nil {
			state = next
		}
		state.appendHistory(current)

		if state.Finished {
			break
		}

		// Routing precedence: router on this node, then a NextNode override
		// set by the node itself, otherwise the run is complete.
		if router, ok := g.routers[current]; ok {
			target, err := router.Route(ctx, state)
			if err != nil {
				routeErr := fmt.Errorf("routing from %s: %w", current, err)
				if stop := g.handleFailure(span, state, current, routeErr, &current); stop {
					g.recordRun("failed", start)
					return state, nil
				}
				continue
			}
			if target == End {
				state.Finish()
				break
			}
			current = target
			continue
		}
		if state.NextNode != "" {
			current = state.NextNode
			state.NextNode = ""
			continue
		}
		state.Finish()
	}

	g.logger.Info("graph execution finished",
		zap.String("session_id", state.SessionID),
		zap.Int("iterations", iterations),
		zap.Duration("elapsed", time.Since(start)),
	)
	g.recordRun("completed", start)
	return state, nil
}

// handleFailure records a runtime failure on the state and decides what runs
// next: the error_handler node if one is registered (and did not itself
// fail), otherwise the run finishes with the error recorded. Failures never
// escape Execute.
func (g *StateGraph) handleFailure(span trace.Span, state *State, failed string, err error, current *string) (stop bool) {
	state.RecordError(failed, err)
	span.RecordError(err)
	g.logger.Error("node failed",
		zap.String("node", failed),
		zap.Error(err),
	)
	if _, ok := g.nodes[ErrorHandler]; ok && failed != ErrorHandler {
		*current = ErrorHandler
		return false
	}
	state.Finish()
	return true
}

func (g *StateGraph) runNode(ctx context.Context, node Node, state *State) (*State, error) {
	nctx, span := g.tracer.Start(ctx, "graph.node",
		trace.WithAttributes(attribute.String("node.name", node.Name())))
	defer span.End()

	g.logger.Debug("running node", zap.String("node", node.Name()))
	return node.Run(nctx, state)
}

func (g *StateGraph) recordRun(status string, start time.Time) {
	if g.metrics != nil {
		g.metrics.RecordGraphRun(status, time.Since(start))
	}
}
