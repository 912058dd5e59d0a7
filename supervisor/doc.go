// Copyright (c) FlowCore Authors.
// Licensed under the MIT License.

/*
Package supervisor 在状态图之上提供监督者/工作者编排模式。

# 概述

supervisor 包将 graph 包的循环状态图组装为一个固定形状：一个监督者
节点和若干工作者节点。监督者每次被访问时依次执行三个阶段——评审
（检查最近完成的工作者产出，不满意则带反馈重派）、规划（惰性生成
工作者执行计划）、派发（按计划推进到下一个工作者）。每个工作者执行
完毕后总是路由回监督者，形成 supervisor → worker → supervisor 的环。

# 可插拔点

规划器（Planner）决定工作者的执行顺序；评审器（Judge）决定产出是否
合格。两者都是接口，缺省评审器仅以工作者是否出错为准。工作者包装任意
workflow.Step，失败不会中断图运行——错误被捕获进结果槽，由监督者裁决。
*/
package supervisor
