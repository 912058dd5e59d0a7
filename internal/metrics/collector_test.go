package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollectorWith("flowcore", reg, zap.NewNop()), reg
}

func TestCollector_RecordDAGRun(t *testing.T) {
	t.Parallel()
	c, _ := newTestCollector(t)

	c.RecordDAGRun("success", 120*time.Millisecond)
	c.RecordDAGRun("success", 80*time.Millisecond)
	c.RecordDAGRun("failed", time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.dagRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.dagRunsTotal.WithLabelValues("failed")))
}

func TestCollector_RecordDAGNode(t *testing.T) {
	t.Parallel()
	c, _ := newTestCollector(t)

	c.RecordDAGNode("success", 10*time.Millisecond)
	c.RecordDAGNode("skipped", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.dagNodesTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.dagNodesTotal.WithLabelValues("skipped")))
}

func TestCollector_RecordSaga(t *testing.T) {
	t.Parallel()
	c, _ := newTestCollector(t)

	c.RecordSagaRun("completed", 50*time.Millisecond)
	c.RecordSagaStep("success", 5*time.Millisecond)
	c.RecordSagaStep("failed", time.Millisecond)
	c.RecordCompensation("compensated")
	c.RecordCompensation("compensated")
	c.RecordCompensation("failed")

	assert.Equal(t, float64(1), testutil.ToFloat64(c.sagaRunsTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.sagaStepsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.compensationsTotal.WithLabelValues("compensated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.compensationsTotal.WithLabelValues("failed")))
}

func TestCollector_RecordGraph(t *testing.T) {
	t.Parallel()
	c, _ := newTestCollector(t)

	c.RecordGraphRun("completed", 30*time.Millisecond)
	c.RecordGraphIteration("supervisor")
	c.RecordGraphIteration("supervisor")
	c.RecordGraphIteration("worker")
	c.RecordInterrupt("approval")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.graphIterationsTotal.WithLabelValues("supervisor")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.graphIterationsTotal.WithLabelValues("worker")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.graphInterruptsTotal.WithLabelValues("approval")))
}

func TestCollector_MetricsRegistered(t *testing.T) {
	t.Parallel()
	c, reg := newTestCollector(t)

	c.RecordDAGRun("success", time.Millisecond)
	c.RecordSagaRun("completed", time.Millisecond)
	c.RecordGraphRun("completed", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["flowcore_dag_runs_total"])
	assert.True(t, names["flowcore_saga_runs_total"])
	assert.True(t, names["flowcore_graph_runs_total"])
}
