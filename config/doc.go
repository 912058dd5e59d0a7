// Copyright (c) FlowCore Authors.
// Licensed under the MIT License.

/*
Package config 提供 FlowCore 的统一配置。

# 概述

配置优先级为：默认值 → YAML 文件 → 环境变量。加载器是 Builder 模式，
环境变量覆盖通过结构体 env tag 反射完成。

	cfg, err := config.NewLoader().
	    WithConfigPath("flowcore.yaml").
	    WithEnvPrefix("FLOWCORE").
	    Load()
*/
package config
