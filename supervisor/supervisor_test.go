package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcore/graph"
	"github.com/BaSui01/flowcore/workflow"
)

func workerStep(name string, fn workflow.StepFunc) workflow.Step {
	return workflow.NewFuncStep(name, fn)
}

func TestCrew_Run_DelegatesAllWorkersInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	steps := []workflow.Step{
		workerStep("research", func(_ context.Context, input any) (any, error) {
			order = append(order, "research")
			return "findings for " + Request(input), nil
		}),
		workerStep("write", func(_ context.Context, _ any) (any, error) {
			order = append(order, "write")
			return "draft", nil
		}),
		workerStep("review", func(_ context.Context, _ any) (any, error) {
			order = append(order, "review")
			return "approved", nil
		}),
	}

	crew := NewCrew("content", "lead", steps, zap.NewNop())
	state, err := crew.Run(context.Background(), "write an article")
	require.NoError(t, err)

	assert.True(t, state.Finished)
	assert.Equal(t, []string{"research", "write", "review"}, order)

	// 每个工作者的产出都落在自己的结果槽
	r := resultFromState(state, "research")
	require.NotNil(t, r)
	assert.Equal(t, "findings for write an article", r.Value)
	assert.Equal(t, 1, r.Attempts)
	assert.False(t, r.Failed())

	// 监督者在每个工作者前后各出现一次：n+1 次访问
	assert.Equal(t, 4, state.VisitCount("lead"))
}

func TestCrew_Run_CustomPlannerSelectsSubset(t *testing.T) {
	t.Parallel()

	var ran []string
	mk := func(name string) workflow.Step {
		return workerStep(name, func(_ context.Context, _ any) (any, error) {
			ran = append(ran, name)
			return name, nil
		})
	}
	steps := []workflow.Step{mk("a"), mk("b"), mk("c")}

	planner := PlannerFunc(func(_ context.Context, _ string, _ []string) ([]string, error) {
		return []string{"c", "a"}, nil
	})

	crew := NewCrew("subset", "boss", steps, zap.NewNop(), WithPlanner(planner))
	state, err := crew.Run(context.Background(), "partial job")
	require.NoError(t, err)

	assert.True(t, state.Finished)
	assert.Equal(t, []string{"c", "a"}, ran)
	assert.Nil(t, resultFromState(state, "b"))
}

func TestCrew_Run_PlannerNamesUnknownWorker(t *testing.T) {
	t.Parallel()

	steps := []workflow.Step{workerStep("a", func(_ context.Context, _ any) (any, error) { return nil, nil })}
	planner := PlannerFunc(func(_ context.Context, _ string, _ []string) ([]string, error) {
		return []string{"ghost"}, nil
	})

	crew := NewCrew("bad-plan", "boss", steps, zap.NewNop(), WithPlanner(planner))
	state, err := crew.Run(context.Background(), "job")
	require.NoError(t, err)

	// 坏计划作为监督者节点错误记录在状态上，运行结束
	assert.True(t, state.Finished)
	require.NotEmpty(t, state.Errors)
	assert.Equal(t, "boss", state.Errors[0].Node)
	assert.Contains(t, state.Errors[0].Error, "ghost")
}

func TestCrew_Run_FailingWorkerRetriedWithFeedback(t *testing.T) {
	t.Parallel()

	var feedbacks []string
	flaky := workerStep("flaky", func(_ context.Context, input any) (any, error) {
		feedbacks = append(feedbacks, Feedback(input))
		if Attempt(input) < 3 {
			return nil, errors.New("transient failure")
		}
		return "finally", nil
	})

	crew := NewCrew("retrying", "boss", []workflow.Step{flaky}, zap.NewNop())
	state, err := crew.Run(context.Background(), "flaky job")
	require.NoError(t, err)

	assert.True(t, state.Finished)
	r := resultFromState(state, "flaky")
	require.NotNil(t, r)
	assert.Equal(t, 3, r.Attempts)
	assert.Equal(t, "finally", r.Value)
	assert.False(t, r.Failed())

	// 首次无反馈，之后每次携带上一次的失败反馈
	require.Len(t, feedbacks, 3)
	assert.Empty(t, feedbacks[0])
	assert.Contains(t, feedbacks[1], "transient failure")
	assert.Contains(t, feedbacks[2], "transient failure")
}

func TestCrew_Run_CustomJudgeRejectsUntilSatisfied(t *testing.T) {
	t.Parallel()

	drafts := 0
	writer := workerStep("writer", func(_ context.Context, _ any) (any, error) {
		drafts++
		if drafts < 2 {
			return "rough draft", nil
		}
		return "polished draft", nil
	})

	judge := JudgeFunc(func(_ context.Context, r *WorkerResult, _ *graph.State) (Verdict, error) {
		if r.Value == "polished draft" {
			return Verdict{Approved: true}, nil
		}
		return Verdict{Feedback: "too rough, polish it"}, nil
	})

	crew := NewCrew("editorial", "editor", []workflow.Step{writer}, zap.NewNop(), WithJudge(judge))
	state, err := crew.Run(context.Background(), "article")
	require.NoError(t, err)

	assert.True(t, state.Finished)
	assert.Equal(t, 2, drafts)
	r := resultFromState(state, "writer")
	require.NotNil(t, r)
	assert.Equal(t, "polished draft", r.Value)
	fb, _ := state.Get(FeedbackKey("writer"))
	assert.Equal(t, "too rough, polish it", fb)
}

func TestCrew_Run_PersistentlyFailingWorkerHitsIterationBound(t *testing.T) {
	t.Parallel()

	hopeless := workerStep("hopeless", func(_ context.Context, _ any) (any, error) {
		return nil, errors.New("永远失败")
	})

	crew := NewCrew("stuck", "boss", []workflow.Step{hopeless}, zap.NewNop(),
		WithGraphOptions(graph.WithMaxIterations(8)))
	state, err := crew.Run(context.Background(), "impossible")
	require.NoError(t, err)

	assert.True(t, state.Finished)
	require.NotEmpty(t, state.Errors)
	assert.Contains(t, state.Errors[len(state.Errors)-1].Error, "8 iterations")

	// 工作者失败本身不终止运行，反复重派直到安全网触发
	r := resultFromState(state, "hopeless")
	require.NotNil(t, r)
	assert.True(t, r.Failed())
	assert.Greater(t, r.Attempts, 1)
}

func TestCrew_Build_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewCrew("no-workers", "boss", nil, zap.NewNop()).Build()
	require.Error(t, err)
	assert.True(t, workflow.IsConfigurationError(err))

	_, err = NewCrew("no-boss", "", []workflow.Step{
		workerStep("a", func(_ context.Context, _ any) (any, error) { return nil, nil }),
	}, zap.NewNop()).Build()
	require.Error(t, err)
}

func TestSupervisor_DefaultJudge(t *testing.T) {
	t.Parallel()

	v, err := defaultJudge{}.Review(context.Background(), &WorkerResult{Worker: "w"}, nil)
	require.NoError(t, err)
	assert.True(t, v.Approved)

	v, err = defaultJudge{}.Review(context.Background(), &WorkerResult{Worker: "w", Err: "nope"}, nil)
	require.NoError(t, err)
	assert.False(t, v.Approved)
	assert.Contains(t, v.Feedback, "nope")
}

func TestStateKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "result:w", ResultKey("w"))
	assert.Equal(t, "feedback:w", FeedbackKey("w"))
}
