package workflow

import (
	"context"
	"time"
)

// Runnable is the common execution interface shared by all engines.
// It represents any unit of work that can be executed with input and produce output.
type Runnable interface {
	Execute(ctx context.Context, input any) (any, error)
}

// Step 工作流步骤接口
type Step interface {
	Runnable
	// Name 返回步骤名称
	Name() string
}

// StepFunc 步骤函数类型
type StepFunc func(ctx context.Context, input any) (any, error)

// FuncStep 函数步骤实现
type FuncStep struct {
	name string
	fn   StepFunc
}

// NewFuncStep 创建函数步骤
func NewFuncStep(name string, fn StepFunc) *FuncStep {
	return &FuncStep{
		name: name,
		fn:   fn,
	}
}

func (s *FuncStep) Execute(ctx context.Context, input any) (any, error) {
	return s.fn(ctx, input)
}

func (s *FuncStep) Name() string {
	return s.name
}

// StepStatus represents the lifecycle status of a workflow step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not started yet.
	StepStatusPending StepStatus = "pending"
	// StepStatusRunning indicates the step is in progress.
	StepStatusRunning StepStatus = "running"
	// StepStatusSuccess indicates the step completed successfully.
	StepStatusSuccess StepStatus = "success"
	// StepStatusFailed indicates the step failed.
	StepStatusFailed StepStatus = "failed"
	// StepStatusCompensated indicates the step's effect was rolled back.
	StepStatusCompensated StepStatus = "compensated"
)

// CompensateFunc 补偿函数类型
// 补偿必须在前向效果部分生效的情况下也能安全调用，这是调用方契约。
type CompensateFunc func(ctx context.Context, payload any) error

// WorkflowStep 带补偿能力的工作流步骤
// Execute 为必选能力，Compensate 可选；状态与时间戳由执行器维护。
type WorkflowStep struct {
	// Name is the unique step name within one workflow.
	Name string
	// Execute is the forward capability.
	Execute StepFunc
	// Compensate undoes the forward effect during rollback. Optional.
	Compensate CompensateFunc
	// Status is owned by the executor for the duration of a run.
	Status StepStatus
	// StartedAt and CompletedAt bracket the forward execution.
	StartedAt   time.Time
	CompletedAt time.Time
}
