package supervisor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcore/graph"
	"github.com/BaSui01/flowcore/workflow"
)

// State keys shared between the supervisor and its workers.
const (
	// KeyRequest holds the original request the crew works on.
	KeyRequest = "request"
	// KeyPlan holds the ordered worker plan ([]string).
	KeyPlan = "plan"
	// KeyPlanIndex holds the index of the next worker to delegate to.
	KeyPlanIndex = "plan_index"
)

// ResultKey returns the state key a worker stores its result under.
func ResultKey(worker string) string {
	return "result:" + worker
}

// FeedbackKey returns the state key the supervisor leaves rejection feedback
// under for a worker.
func FeedbackKey(worker string) string {
	return "feedback:" + worker
}

// WorkerResult 工作者结果槽
// 无论成败，工作者都把产出写进自己的结果槽，由监督者评审。
type WorkerResult struct {
	Worker   string `json:"worker"`
	Value    any    `json:"value,omitempty"`
	Err      string `json:"err,omitempty"`
	Attempts int    `json:"attempts"`
}

// Failed reports whether the worker's latest attempt errored.
func (r *WorkerResult) Failed() bool {
	return r.Err != ""
}

// Planner produces the ordered list of workers for a request.
type Planner interface {
	Plan(ctx context.Context, request string, workers []string) ([]string, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, request string, workers []string) ([]string, error)

func (f PlannerFunc) Plan(ctx context.Context, request string, workers []string) ([]string, error) {
	return f(ctx, request, workers)
}

// Verdict is a judge's decision about one worker result.
type Verdict struct {
	Approved bool
	// Feedback is handed to the worker on rejection.
	Feedback string
}

// Judge reviews a worker's result and decides whether to accept it or send
// the worker back with feedback.
type Judge interface {
	Review(ctx context.Context, result *WorkerResult, state *graph.State) (Verdict, error)
}

// JudgeFunc adapts a function to the Judge interface.
type JudgeFunc func(ctx context.Context, result *WorkerResult, state *graph.State) (Verdict, error)

func (f JudgeFunc) Review(ctx context.Context, result *WorkerResult, state *graph.State) (Verdict, error) {
	return f(ctx, result, state)
}

// defaultJudge approves any result that did not error.
type defaultJudge struct{}

func (defaultJudge) Review(_ context.Context, result *WorkerResult, _ *graph.State) (Verdict, error) {
	if result.Failed() {
		return Verdict{Feedback: fmt.Sprintf("previous attempt failed: %s", result.Err)}, nil
	}
	return Verdict{Approved: true}, nil
}

// Supervisor 监督者节点
// 每次被访问依次执行评审、规划、派发三个阶段。
type Supervisor struct {
	name    string
	workers []string
	planner Planner
	judge   Judge
	logger  *zap.Logger
}

// NewSupervisor 创建监督者
// planner 为 nil 时按注册顺序派发全部工作者；judge 为 nil 时使用缺省
// 评审器（工作者无错误即通过）。
func NewSupervisor(name string, workers []string, planner Planner, judge Judge, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if planner == nil {
		planner = PlannerFunc(func(_ context.Context, _ string, ws []string) ([]string, error) {
			plan := make([]string, len(ws))
			copy(plan, ws)
			return plan, nil
		})
	}
	if judge == nil {
		judge = defaultJudge{}
	}
	return &Supervisor{
		name:    name,
		workers: workers,
		planner: planner,
		judge:   judge,
		logger:  logger.With(zap.String("component", "supervisor"), zap.String("supervisor", name)),
	}
}

func (s *Supervisor) Name() string {
	return s.name
}

// Run 监督者归约逻辑
// 阶段一评审：最近派发的工作者产出未通过评审时，留下反馈并原地重派。
// 阶段二规划：首次访问时调用规划器生成计划。
// 阶段三派发：计划未完成则推进到下一个工作者，否则结束运行。
func (s *Supervisor) Run(ctx context.Context, state *graph.State) (*graph.State, error) {
	// 评审阶段
	idx := state.GetInt(KeyPlanIndex)
	plan := s.planFromState(state)
	if plan != nil && idx > 0 && idx <= len(plan) {
		worker := plan[idx-1]
		result := resultFromState(state, worker)
		if result != nil {
			verdict, err := s.judge.Review(ctx, result, state)
			if err != nil {
				return nil, fmt.Errorf("reviewing %s: %w", worker, err)
			}
			if !verdict.Approved {
				state.Set(FeedbackKey(worker), verdict.Feedback)
				state.NextNode = worker
				state.EmitEvent("rework:" + worker)
				s.logger.Info("rejected worker result, re-delegating",
					zap.String("worker", worker),
					zap.String("feedback", verdict.Feedback),
					zap.Int("attempts", result.Attempts),
				)
				return state, nil
			}
			state.EmitEvent("approved:" + worker)
			s.logger.Debug("approved worker result", zap.String("worker", worker))
		}
	}

	// 规划阶段（惰性，仅首次）
	if plan == nil {
		request := state.GetString(KeyRequest)
		planned, err := s.planner.Plan(ctx, request, s.workers)
		if err != nil {
			return nil, fmt.Errorf("planning: %w", err)
		}
		for _, w := range planned {
			if !s.knownWorker(w) {
				return nil, workflow.NewConfigurationError("plan names unknown worker %s", w)
			}
		}
		plan = planned
		state.Set(KeyPlan, plan)
		state.Set(KeyPlanIndex, 0)
		idx = 0
		s.logger.Info("plan created", zap.Strings("plan", plan))
	}

	// 派发阶段
	if idx < len(plan) {
		next := plan[idx]
		state.Set(KeyPlanIndex, idx+1)
		state.NextNode = next
		s.logger.Debug("delegating", zap.String("worker", next), zap.Int("position", idx))
		return state, nil
	}

	state.Finish()
	s.logger.Info("plan complete, finishing run")
	return state, nil
}

func (s *Supervisor) knownWorker(name string) bool {
	for _, w := range s.workers {
		if w == name {
			return true
		}
	}
	return false
}

// planFromState reads the stored plan back out of the state.
func (s *Supervisor) planFromState(state *graph.State) []string {
	v, ok := state.Get(KeyPlan)
	if !ok {
		return nil
	}
	if plan, ok := v.([]string); ok {
		return plan
	}
	return nil
}

func resultFromState(state *graph.State, worker string) *WorkerResult {
	v, ok := state.Get(ResultKey(worker))
	if !ok {
		return nil
	}
	if r, ok := v.(*WorkerResult); ok {
		return r
	}
	return nil
}
