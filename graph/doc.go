// Copyright (c) FlowCore Authors.
// Licensed under the MIT License.

/*
Package graph 提供带环状态图执行引擎。

# 概述

graph 包实现 FlowCore 的循环计算模型：命名节点构成可以带环的有向图，
每个节点是一个状态归约器（接收当前状态，返回演化后的状态），节点出边
由路由器在运行时基于状态内容决定。与 workflow 包的 DAG 不同，环在这里
是一等公民——迭代细化、重试循环、监督者/工作者模式都依赖回边。

# 终止

执行循环在以下情况终止：状态被标记完成、路由到 End 哨兵、显式中断
（可恢复）、或迭代次数达到安全上限。节点返回错误时控制权转移到保留
名称 error_handler 的节点（若注册），否则执行以失败结束。

# 中断与恢复

节点可在状态上请求中断，执行器在节点边界暂停并返回当前状态；携带
NextNode 的状态重新提交后从该节点继续，恢复恰好执行一次。
*/
package graph
