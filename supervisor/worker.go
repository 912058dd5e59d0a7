package supervisor

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcore/graph"
	"github.com/BaSui01/flowcore/workflow"
)

// Worker 工作者节点
// 包装一个 workflow.Step 并把产出写入自己的结果槽。失败不会中断图
// 运行：错误进入结果槽，控制权总是交回监督者裁决。
type Worker struct {
	step   workflow.Step
	logger *zap.Logger
}

// NewWorker wraps a step as a crew worker.
func NewWorker(step workflow.Step, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		step:   step,
		logger: logger.With(zap.String("component", "worker"), zap.String("worker", step.Name())),
	}
}

func (w *Worker) Name() string {
	return w.step.Name()
}

// Run executes the wrapped step against the shared state. Input is the
// original request plus any supervisor feedback from a rejected attempt.
func (w *Worker) Run(ctx context.Context, state *graph.State) (*graph.State, error) {
	result := resultFromState(state, w.Name())
	if result == nil {
		result = &WorkerResult{Worker: w.Name()}
	}
	result.Attempts++

	input := workerInput{
		Request:  state.GetString(KeyRequest),
		Feedback: state.GetString(FeedbackKey(w.Name())),
		Attempt:  result.Attempts,
	}

	w.logger.Info("worker started",
		zap.String("session_id", state.SessionID),
		zap.Int("attempt", result.Attempts),
	)

	value, err := w.step.Execute(ctx, input)
	if err != nil {
		result.Value = nil
		result.Err = err.Error()
		state.EmitEvent("failed:" + w.Name())
		w.logger.Error("worker failed", zap.Int("attempt", result.Attempts), zap.Error(err))
	} else {
		result.Value = value
		result.Err = ""
		state.EmitEvent("done:" + w.Name())
		w.logger.Info("worker completed", zap.Int("attempt", result.Attempts))
	}

	state.Set(ResultKey(w.Name()), result)
	return state, nil
}

// workerInput is what a worker's wrapped step receives as input.
type workerInput struct {
	Request  string
	Feedback string
	Attempt  int
}

// Request returns the original crew request from a step input.
func Request(input any) string {
	if in, ok := input.(workerInput); ok {
		return in.Request
	}
	return ""
}

// Feedback returns the supervisor feedback from a step input, empty on the
// first attempt.
func Feedback(input any) string {
	if in, ok := input.(workerInput); ok {
		return in.Feedback
	}
	return ""
}

// Attempt returns the 1-based attempt number from a step input.
func Attempt(input any) int {
	if in, ok := input.(workerInput); ok {
		return in.Attempt
	}
	return 0
}
