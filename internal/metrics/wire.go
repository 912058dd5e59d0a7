package metrics

import (
	"github.com/BaSui01/flowcore/graph"
	"github.com/BaSui01/flowcore/saga"
	"github.com/BaSui01/flowcore/workflow"
)

// Collector 必须同时满足三个引擎的指标接口
var (
	_ workflow.DAGMetrics = (*Collector)(nil)
	_ saga.Metrics        = (*Collector)(nil)
	_ graph.GraphMetrics  = (*Collector)(nil)
)
