package supervisor

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcore/graph"
	"github.com/BaSui01/flowcore/workflow"
)

// Crew 组装监督者与工作者为可执行状态图
type Crew struct {
	name       string
	supervisor string
	steps      []workflow.Step
	planner    Planner
	judge      Judge
	logger     *zap.Logger
	graphOpts  []graph.GraphOption
}

// CrewOption configures a Crew.
type CrewOption func(*Crew)

// WithPlanner sets the crew's planner.
func WithPlanner(p Planner) CrewOption {
	return func(c *Crew) {
		c.planner = p
	}
}

// WithJudge sets the crew's judge.
func WithJudge(j Judge) CrewOption {
	return func(c *Crew) {
		c.judge = j
	}
}

// WithGraphOptions forwards options to the underlying state graph.
func WithGraphOptions(opts ...graph.GraphOption) CrewOption {
	return func(c *Crew) {
		c.graphOpts = append(c.graphOpts, opts...)
	}
}

// NewCrew 创建编组
// supervisorName 是监督者节点名，steps 是工作者包装的步骤。
func NewCrew(name, supervisorName string, steps []workflow.Step, logger *zap.Logger, opts ...CrewOption) *Crew {
	c := &Crew{
		name:       name,
		supervisor: supervisorName,
		steps:      steps,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Build wires the supervisor and workers into a state graph. The supervisor
// is the entry node; every worker routes straight back to the supervisor.
func (c *Crew) Build() (*graph.StateGraph, error) {
	if c.supervisor == "" {
		return nil, workflow.NewConfigurationError("crew needs a supervisor name")
	}
	if len(c.steps) == 0 {
		return nil, workflow.NewConfigurationError("crew %s has no workers", c.name)
	}

	workers := make([]string, 0, len(c.steps))
	for _, step := range c.steps {
		workers = append(workers, step.Name())
	}

	g := graph.NewStateGraph(c.name, c.logger, c.graphOpts...)

	sup := NewSupervisor(c.supervisor, workers, c.planner, c.judge, c.logger)
	if err := g.AddNode(sup); err != nil {
		return nil, err
	}

	for _, step := range c.steps {
		if err := g.AddNode(NewWorker(step, c.logger)); err != nil {
			return nil, err
		}
		// 工作者无条件回到监督者
		err := g.SetRouterFunc(step.Name(), func(_ context.Context, _ *graph.State) (string, error) {
			return c.supervisor, nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := g.SetEntry(c.supervisor); err != nil {
		return nil, err
	}
	return g, nil
}

// Run builds the crew graph and executes one request.
func (c *Crew) Run(ctx context.Context, request string) (*graph.State, error) {
	g, err := c.Build()
	if err != nil {
		return nil, err
	}
	state := graph.NewState()
	state.Set(KeyRequest, request)
	return g.Execute(ctx, state)
}
