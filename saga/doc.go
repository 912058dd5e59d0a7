// Copyright (c) FlowCore Authors.
// Licensed under the MIT License.

/*
Package saga 提供顺序补偿事务执行引擎。

# 概述

saga 包实现 FlowCore 的全有或全无语义：按声明顺序串行执行步骤，任一
步骤失败时，按严格逆序（LIFO）调用已成功步骤的补偿动作。正向执行与
回滚均为严格串行，保证审计顺序确定。

# 补偿失败语义

补偿失败不会中止回滚——失败被记录后继续回滚剩余栈，最终状态降级为
failed_partial_compensation（区别于干净的 failed_and_compensated），
提示可能需要人工介入。补偿动作必须在前向效果部分生效时也可安全调用，
这是调用方契约，执行器不做强制。
*/
package saga
