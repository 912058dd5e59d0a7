package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// orderedProbe records the completion order of nodes across one run.
type orderedProbe struct {
	mu    sync.Mutex
	order []string
}

func (p *orderedProbe) record(name string) {
	p.mu.Lock()
	p.order = append(p.order, name)
	p.mu.Unlock()
}

func (p *orderedProbe) indexOf(name string) int {
	for i, n := range p.order {
		if n == name {
			return i
		}
	}
	return -1
}

// buildLayeredDAG builds a DAG of layerCount layers with width nodes each;
// every node depends on all nodes of the previous layer.
func buildLayeredDAG(e *DAGExecutor, probe *orderedProbe, layerCount, width int, failAt string) error {
	var prev []string
	for l := 0; l < layerCount; l++ {
		var current []string
		for w := 0; w < width; w++ {
			name := fmt.Sprintf("n_%d_%d", l, w)
			step := NewFuncStep(name, func(ctx context.Context, input any) (any, error) {
				if name == failAt {
					return nil, errors.New("injected failure")
				}
				probe.record(name)
				return name, nil
			})
			if err := e.AddNode(&DAGNode{Name: name, Task: step, DependsOn: prev}); err != nil {
				return err
			}
			current = append(current, name)
		}
		prev = current
	}
	return nil
}

// 任意分层 DAG 中，节点的完成顺序必须与依赖关系一致。
func TestProperty_DependencyOrderRespected(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("every node completes after all of its dependencies", prop.ForAll(
		func(layerCount, width int) bool {
			probe := &orderedProbe{}
			e := NewDAGExecutor("layered", zap.NewNop())
			if err := buildLayeredDAG(e, probe, layerCount, width, ""); err != nil {
				t.Logf("build failed: %v", err)
				return false
			}

			result, err := e.Execute(context.Background(), NewContext())
			if err != nil {
				t.Logf("execute failed: %v", err)
				return false
			}
			if result.Status != DAGStatusSuccess {
				return false
			}

			// 每个节点的序号都必须大于其所有依赖的序号
			for l := 1; l < layerCount; l++ {
				for w := 0; w < width; w++ {
					name := fmt.Sprintf("n_%d_%d", l, w)
					for pw := 0; pw < width; pw++ {
						dep := fmt.Sprintf("n_%d_%d", l-1, pw)
						if probe.indexOf(name) < probe.indexOf(dep) {
							return false
						}
					}
				}
			}
			return true
		},
		gen.IntRange(1, 4),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

// 任一节点失败时，其传递闭包内的下游全部跳过，且都未执行。
func TestProperty_SkipPropagationIsTransitive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("descendants of a failed node are skipped, never executed", prop.ForAll(
		func(layerCount, width, failLayer, failWidth int) bool {
			failLayer = failLayer % layerCount
			failWidth = failWidth % width
			failAt := fmt.Sprintf("n_%d_%d", failLayer, failWidth)

			probe := &orderedProbe{}
			e := NewDAGExecutor("layered-fail", zap.NewNop())
			if err := buildLayeredDAG(e, probe, layerCount, width, failAt); err != nil {
				t.Logf("build failed: %v", err)
				return false
			}

			result, err := e.Execute(context.Background(), NewContext())
			if err != nil {
				t.Logf("execute failed: %v", err)
				return false
			}
			if result.Status != DAGStatusFailed {
				return false
			}
			if result.Nodes[failAt].Status != NodeStatusFailed {
				return false
			}

			// 全连接分层结构：失败层之后的所有节点都在传递闭包内
			for l := failLayer + 1; l < layerCount; l++ {
				for w := 0; w < width; w++ {
					name := fmt.Sprintf("n_%d_%d", l, w)
					if result.Nodes[name].Status != NodeStatusSkipped {
						return false
					}
					if probe.indexOf(name) != -1 {
						return false
					}
				}
			}

			// 失败节点所在层的其余节点不受影响
			for w := 0; w < width; w++ {
				name := fmt.Sprintf("n_%d_%d", failLayer, w)
				if name == failAt {
					continue
				}
				if result.Nodes[name].Status != NodeStatusSuccess {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 4),
		gen.IntRange(1, 4),
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
