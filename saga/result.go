package saga

import (
	"time"

	"github.com/BaSui01/flowcore/workflow"
)

// Status is the final status of one saga run.
type Status string

const (
	// StatusCompleted indicates every step succeeded; nothing was compensated.
	StatusCompleted Status = "completed"
	// StatusFailedAndCompensated indicates a step failed and every completed
	// step was compensated cleanly.
	StatusFailedAndCompensated Status = "failed_and_compensated"
	// StatusFailedPartialCompensation indicates a step failed and at least one
	// compensation also failed; manual intervention may be needed.
	StatusFailedPartialCompensation Status = "failed_partial_compensation"
)

// StepRecord records one forward step execution, in order.
type StepRecord struct {
	Name     string              `json:"name"`
	Status   workflow.StepStatus `json:"status"`
	Duration time.Duration       `json:"duration"`
	Error    string              `json:"error,omitempty"`
}

// CompensationRecord records one rollback invocation, in unwind order.
type CompensationRecord struct {
	Name   string              `json:"name"`
	Status workflow.StepStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

// Result 一次 saga 运行的结果
// Execute 返回后不可变。
type Result struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
	// Executed records every step that ran, in forward order.
	Executed []StepRecord `json:"executed"`
	// Compensations records every rollback invocation, in strict LIFO order.
	Compensations []CompensationRecord `json:"compensations,omitempty"`
	// FailedStep names the step whose failure triggered rollback.
	FailedStep string `json:"failed_step,omitempty"`
	Error      string `json:"error,omitempty"`
	// Payload is the final payload after the last step, set only on success.
	Payload any           `json:"payload,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Completed reports whether the saga ran to completion without rollback.
func (r *Result) Completed() bool {
	return r.Status == StatusCompleted
}

// CompensationTrustworthy reports whether rollback completed without any
// compensation failure.
func (r *Result) CompensationTrustworthy() bool {
	return r.Status != StatusFailedPartialCompensation
}
