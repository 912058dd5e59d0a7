package saga

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcore/workflow"
)

// Step is a saga unit of work paired with a compensating action.
// Execute transforms the shared payload; Compensate undoes the step's effect
// and must be safe to invoke even against a partially-applied forward effect.
type Step interface {
	// Name 返回步骤名称
	Name() string
	// Execute runs the forward action and returns the next payload.
	Execute(ctx context.Context, payload any) (any, error)
	// Compensate undoes the forward action. It receives the payload as it
	// stood right after this step executed.
	Compensate(ctx context.Context, payload any) error
}

// FuncStep 函数式 saga 步骤
type FuncStep struct {
	name       string
	execute    workflow.StepFunc
	compensate workflow.CompensateFunc
}

// NewStep creates a saga step from an execute and an optional compensate
// function. A nil compensate is a no-op during rollback.
func NewStep(name string, execute workflow.StepFunc, compensate workflow.CompensateFunc) *FuncStep {
	return &FuncStep{
		name:       name,
		execute:    execute,
		compensate: compensate,
	}
}

func (s *FuncStep) Name() string {
	return s.name
}

func (s *FuncStep) Execute(ctx context.Context, payload any) (any, error) {
	return s.execute(ctx, payload)
}

func (s *FuncStep) Compensate(ctx context.Context, payload any) error {
	if s.compensate == nil {
		return nil
	}
	return s.compensate(ctx, payload)
}

// Metrics receives execution metrics from the saga executor.
// internal/metrics.Collector satisfies this interface.
type Metrics interface {
	RecordSagaRun(status string, elapsed time.Duration)
	RecordSagaStep(status string, elapsed time.Duration)
	RecordCompensation(status string)
}

// Executor 补偿事务执行器
// 步骤严格按注册顺序执行，不存在任何并发。
type Executor struct {
	name    string
	steps   []Step
	logger  *zap.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// NewExecutor 创建 saga 执行器
func NewExecutor(name string, logger *zap.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		name:   name,
		logger: logger.With(zap.String("component", "saga_executor"), zap.String("saga", name)),
		tracer: otel.Tracer("flowcore/saga"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddStep appends a step to the ordered list.
func (e *Executor) AddStep(step Step) error {
	if step == nil || step.Name() == "" {
		return workflow.NewConfigurationError("saga step must have a name")
	}
	e.steps = append(e.steps, step)
	return nil
}

// AddWorkflowStep registers a workflow.WorkflowStep as a saga step.
func (e *Executor) AddWorkflowStep(ws *workflow.WorkflowStep) error {
	if ws == nil || ws.Execute == nil {
		return workflow.NewConfigurationError("workflow step must have an execute function")
	}
	return e.AddStep(NewStep(ws.Name, ws.Execute, ws.Compensate))
}

// Steps returns the registered step names in order.
func (e *Executor) Steps() []string {
	names := make([]string, 0, len(e.steps))
	for _, s := range e.steps {
		names = append(names, s.Name())
	}
	return names
}

// Execute 按顺序执行全部步骤
// 每个成功步骤压入内部完成栈；任一步骤失败即停止前向执行并按 LIFO
// 顺序补偿该栈。业务失败不会作为 error 返回——结果对象承载全部信息。
func (e *Executor) Execute(ctx context.Context, wctx *workflow.Context, input any) (*Result, error) {
	if wctx == nil {
		return nil, workflow.NewConfigurationError("execution context cannot be nil")
	}

	ctx, span := e.tracer.Start(ctx, "saga.execute",
		trace.WithAttributes(
			attribute.String("saga.name", e.name),
			attribute.String("session.id", wctx.SessionID),
		))
	defer span.End()

	e.logger.Info("starting saga execution",
		zap.String("session_id", wctx.SessionID),
		zap.Int("steps", len(e.steps)),
	)

	start := time.Now()
	result := &Result{
		SessionID: wctx.SessionID,
		Status:    StatusCompleted,
	}

	// completed records every successful step together with its output
	// payload; rollback is reverse iteration over this stack.
	type completedStep struct {
		step    Step
		payload any
	}
	var completed []completedStep

	payload := input
	var failedErr error

	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			failedErr = err
			result.FailedStep = step.Name()
			result.Error = err.Error()
			break
		}

		stepStart := time.Now()
		e.logger.Debug("executing step", zap.String("step", step.Name()))

		next, err := step.Execute(ctx, payload)
		elapsed := time.Since(stepStart)

		rec := StepRecord{
			Name:     step.Name(),
			Duration: elapsed,
		}

		if err != nil {
			rec.Status = workflow.StepStatusFailed
			rec.Error = err.Error()
			result.Executed = append(result.Executed, rec)
			result.FailedStep = step.Name()
			result.Error = err.Error()
			failedErr = err
			span.RecordError(err)
			e.logger.Error("step failed, starting rollback",
				zap.String("step", step.Name()),
				zap.Int("completed_steps", len(completed)),
				zap.Error(err),
			)
			if e.metrics != nil {
				e.metrics.RecordSagaStep(string(workflow.StepStatusFailed), elapsed)
			}
			break
		}

		rec.Status = workflow.StepStatusSuccess
		result.Executed = append(result.Executed, rec)
		payload = next
		completed = append(completed, completedStep{step: step, payload: payload})

		if e.metrics != nil {
			e.metrics.RecordSagaStep(string(workflow.StepStatusSuccess), elapsed)
		}
	}

	if failedErr == nil {
		result.Payload = payload
		result.Elapsed = time.Since(start)
		e.logger.Info("saga completed",
			zap.String("session_id", wctx.SessionID),
			zap.Duration("elapsed", result.Elapsed),
		)
		if e.metrics != nil {
			e.metrics.RecordSagaRun(string(result.Status), result.Elapsed)
		}
		return result, nil
	}

	// LIFO rollback. A failing compensation never aborts the unwind: it is
	// recorded and rollback continues for the remaining stack.
	result.Status = StatusFailedAndCompensated
	for i := len(completed) - 1; i >= 0; i-- {
		cs := completed[i]
		e.logger.Info("compensating step", zap.String("step", cs.step.Name()))

		comp := CompensationRecord{Name: cs.step.Name()}
		if err := cs.step.Compensate(ctx, cs.payload); err != nil {
			comp.Status = workflow.StepStatusFailed
			comp.Error = err.Error()
			result.Status = StatusFailedPartialCompensation
			e.logger.Error("compensation failed, continuing rollback",
				zap.String("step", cs.step.Name()),
				zap.Error(err),
			)
		} else {
			comp.Status = workflow.StepStatusCompensated
		}
		result.Compensations = append(result.Compensations, comp)

		if e.metrics != nil {
			e.metrics.RecordCompensation(string(comp.Status))
		}
	}

	result.Elapsed = time.Since(start)
	e.logger.Info("saga rolled back",
		zap.String("session_id", wctx.SessionID),
		zap.String("status", string(result.Status)),
		zap.Int("compensated", len(result.Compensations)),
		zap.Duration("elapsed", result.Elapsed),
	)
	if e.metrics != nil {
		e.metrics.RecordSagaRun(string(result.Status), result.Elapsed)
	}
	return result, nil
}
