package saga

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/BaSui01/flowcore/workflow"
)

// 任意步骤数、任意失败位置下的回滚不变量：
//   - 第 k 步失败时，补偿序列恰为 k-1, k-2, ..., 1
//   - 任一补偿失败都不会截断回滚，仅降级最终状态
func TestExecute_RollbackInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stepCount := rapid.IntRange(1, 12).Draw(t, "stepCount")
		failAt := rapid.IntRange(0, stepCount-1).Draw(t, "failAt")

		failingComps := make(map[int]bool)
		for i := 0; i < failAt; i++ {
			if rapid.Bool().Draw(t, fmt.Sprintf("compFails_%d", i)) {
				failingComps[i] = true
			}
		}

		var compensated []string
		e := NewExecutor("prop", zap.NewNop())
		for i := 0; i < stepCount; i++ {
			name := fmt.Sprintf("step_%d", i)
			fails := i == failAt
			compFails := failingComps[i]
			err := e.AddStep(NewStep(name,
				func(_ context.Context, p any) (any, error) {
					if fails {
						return nil, errors.New("forward failure")
					}
					return p, nil
				},
				func(_ context.Context, _ any) error {
					if compFails {
						return errors.New("compensation failure")
					}
					compensated = append(compensated, name)
					return nil
				},
			))
			if err != nil {
				t.Fatalf("AddStep: %v", err)
			}
		}

		result, err := e.Execute(context.Background(), workflow.NewContext(), "payload")
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}

		// 补偿记录恰为已完成步骤的严格逆序
		if len(result.Compensations) != failAt {
			t.Fatalf("expected %d compensation records, got %d", failAt, len(result.Compensations))
		}
		for i, comp := range result.Compensations {
			want := fmt.Sprintf("step_%d", failAt-1-i)
			if comp.Name != want {
				t.Fatalf("compensation %d: expected %s, got %s", i, want, comp.Name)
			}
		}

		// 成功的补偿按逆序落入 journal
		idx := 0
		for i := failAt - 1; i >= 0; i-- {
			if failingComps[i] {
				continue
			}
			want := fmt.Sprintf("step_%d", i)
			if idx >= len(compensated) || compensated[idx] != want {
				t.Fatalf("journal position %d: expected %s, journal %v", idx, want, compensated)
			}
			idx++
		}
		if idx != len(compensated) {
			t.Fatalf("unexpected extra compensations: %v", compensated)
		}

		// 最终状态由是否存在补偿失败决定
		wantStatus := StatusFailedAndCompensated
		if len(failingComps) > 0 {
			wantStatus = StatusFailedPartialCompensation
		}
		if result.Status != wantStatus {
			t.Fatalf("expected status %s, got %s", wantStatus, result.Status)
		}
	})
}
