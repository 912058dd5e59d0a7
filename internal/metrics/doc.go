// Copyright (c) FlowCore Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的执行引擎指标采集能力，覆盖
DAG、saga、状态图三个引擎。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
注册机制。Collector 结构性地满足各引擎包声明的指标接口
（workflow.DAGMetrics、saga.Metrics、graph.GraphMetrics），
引擎包因此无需依赖本内部包。

# 主要能力

  - DAG 指标：运行总数与耗时、节点执行总数与耗时，按 status 分组。
  - saga 指标：运行总数与耗时、步骤执行、补偿调用计数。
  - 状态图指标：运行总数与耗时、节点派发计数、中断计数。
*/
package metrics
