package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
// 结构性满足 workflow.DAGMetrics、saga.Metrics 与 graph.GraphMetrics。
type Collector struct {
	// DAG 指标
	dagRunsTotal    *prometheus.CounterVec
	dagRunDuration  *prometheus.HistogramVec
	dagNodesTotal   *prometheus.CounterVec
	dagNodeDuration *prometheus.HistogramVec

	// saga 指标
	sagaRunsTotal      *prometheus.CounterVec
	sagaRunDuration    *prometheus.HistogramVec
	sagaStepsTotal     *prometheus.CounterVec
	sagaStepDuration   *prometheus.HistogramVec
	compensationsTotal *prometheus.CounterVec

	// 状态图指标
	graphRunsTotal       *prometheus.CounterVec
	graphRunDuration     *prometheus.HistogramVec
	graphIterationsTotal *prometheus.CounterVec
	graphInterruptsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWith(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWith 创建指标收集器并注册到指定 Registerer
// 测试中传入独立的 Registry 避免重复注册冲突。
func NewCollectorWith(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// DAG 指标
	c.dagRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dag_runs_total",
			Help:      "Total number of DAG runs",
		},
		[]string{"status"},
	)

	c.dagRunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dag_run_duration_seconds",
			Help:      "DAG run duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"status"},
	)

	c.dagNodesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dag_nodes_total",
			Help:      "Total number of DAG node executions",
		},
		[]string{"status"},
	)

	c.dagNodeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dag_node_duration_seconds",
			Help:      "DAG node execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// saga 指标
	c.sagaRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_runs_total",
			Help:      "Total number of saga runs",
		},
		[]string{"status"},
	)

	c.sagaRunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "saga_run_duration_seconds",
			Help:      "Saga run duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"status"},
	)

	c.sagaStepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_steps_total",
			Help:      "Total number of saga step executions",
		},
		[]string{"status"},
	)

	c.sagaStepDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "saga_step_duration_seconds",
			Help:      "Saga step execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	c.compensationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_compensations_total",
			Help:      "Total number of saga compensation invocations",
		},
		[]string{"status"},
	)

	// 状态图指标
	c.graphRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_runs_total",
			Help:      "Total number of state graph runs",
		},
		[]string{"status"},
	)

	c.graphRunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_run_duration_seconds",
			Help:      "State graph run duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"status"},
	)

	c.graphIterationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_iterations_total",
			Help:      "Total number of state graph node dispatches",
		},
		[]string{"node"},
	)

	c.graphInterruptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_interrupts_total",
			Help:      "Total number of state graph interrupts",
		},
		[]string{"node"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 DAG 指标记录
// =============================================================================

// RecordDAGRun 记录一次 DAG 运行
func (c *Collector) RecordDAGRun(status string, elapsed time.Duration) {
	c.dagRunsTotal.WithLabelValues(status).Inc()
	c.dagRunDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// RecordDAGNode 记录一次 DAG 节点执行
func (c *Collector) RecordDAGNode(status string, elapsed time.Duration) {
	c.dagNodesTotal.WithLabelValues(status).Inc()
	c.dagNodeDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// =============================================================================
// 🔁 saga 指标记录
// =============================================================================

// RecordSagaRun 记录一次 saga 运行
func (c *Collector) RecordSagaRun(status string, elapsed time.Duration) {
	c.sagaRunsTotal.WithLabelValues(status).Inc()
	c.sagaRunDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// RecordSagaStep 记录一次 saga 步骤执行
func (c *Collector) RecordSagaStep(status string, elapsed time.Duration) {
	c.sagaStepsTotal.WithLabelValues(status).Inc()
	c.sagaStepDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// RecordCompensation 记录一次补偿调用
func (c *Collector) RecordCompensation(status string) {
	c.compensationsTotal.WithLabelValues(status).Inc()
}

// =============================================================================
// 🌀 状态图指标记录
// =============================================================================

// RecordGraphRun 记录一次状态图运行
func (c *Collector) RecordGraphRun(status string, elapsed time.Duration) {
	c.graphRunsTotal.WithLabelValues(status).Inc()
	c.graphRunDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// RecordGraphIteration 记录一次节点派发
func (c *Collector) RecordGraphIteration(node string) {
	c.graphIterationsTotal.WithLabelValues(node).Inc()
}

// RecordInterrupt 记录一次中断
func (c *Collector) RecordInterrupt(node string) {
	c.graphInterruptsTotal.WithLabelValues(node).Inc()
}
