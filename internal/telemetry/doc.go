// Copyright (c) FlowCore Authors.
// Licensed under the MIT License.

/*
包 telemetry 封装 OpenTelemetry SDK 的初始化与关闭。

# 概述

各引擎包通过 otel.Tracer 获取全局 tracer，本包负责在进程启动时把
全局 provider 指向真实的 OTLP gRPC 导出器。遥测关闭时不创建任何
导出器，全局 provider 保持 noop，引擎代码无需感知差异。
*/
package telemetry
