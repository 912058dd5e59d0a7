// Copyright (c) FlowCore Authors.
// Licensed under the MIT License.

/*
Package workflow 提供 FlowCore 的共享执行模型与 DAG 执行引擎。

# 概述

workflow 包定义三个执行引擎共用的 Step/Context/Result 模型，并实现
依赖驱动的并行 DAG 执行器。DAG 执行器按"就绪集"轮次调度：所有依赖
均成功的节点在同一轮内并发执行，轮与轮之间是同步屏障。

# 核心接口与类型

  - Runnable / Step / FuncStep — 通用工作单元 Execute(ctx, input) (output, error)
  - Context                    — 单次运行的可变执行状态容器（会话 ID、数据袋、合规标签）
  - DAGNode / DAGExecutor      — 带依赖声明的节点与轮次调度执行器
  - DAGResult / NodeResult     — 每节点结果（success/failed/skipped）与聚合状态
  - ExecutionHistory           — 节点级执行历史与内存查询存储
  - Error / CycleError         — 配置错误与环检测错误（运行前致命）

# 失败策略

节点失败被捕获到其结果上；其（传递）依赖者标记为 skipped 而不执行；
只要有节点失败，聚合状态即为 failed。环检测与依赖解析在运行前完成，
检测到环时报告完整环路径。
*/
package workflow
