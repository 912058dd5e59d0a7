// =============================================================================
// FlowCore 主入口
// =============================================================================
// 演示入口点：装配配置、日志、遥测与指标，运行一条示例编排流水线
//
// 使用方法:
//
//	flowcore demo                       # 运行演示流水线
//	flowcore demo --config config.yaml  # 指定配置文件
//	flowcore version                    # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcore/config"
	"github.com/BaSui01/flowcore/graph"
	"github.com/BaSui01/flowcore/internal/metrics"
	"github.com/BaSui01/flowcore/internal/telemetry"
	"github.com/BaSui01/flowcore/saga"
	"github.com/BaSui01/flowcore/supervisor"
	"github.com/BaSui01/flowcore/workflow"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		runDemo(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ demo 命令
// =============================================================================

func runDemo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting FlowCore demo",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector("flowcore", logger)
	ctx := context.Background()

	if err := runDAGDemo(ctx, cfg, logger, collector); err != nil {
		logger.Fatal("DAG demo failed", zap.Error(err))
	}
	if err := runSagaDemo(ctx, logger, collector); err != nil {
		logger.Fatal("saga demo failed", zap.Error(err))
	}
	if err := runCrewDemo(ctx, cfg, logger, collector); err != nil {
		logger.Fatal("crew demo failed", zap.Error(err))
	}

	logger.Info("FlowCore demo finished")
}

// runDAGDemo 运行一个菱形 DAG：fetch → (clean, enrich) → report
func runDAGDemo(ctx context.Context, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) error {
	executor := workflow.NewDAGExecutor("report-pipeline", logger,
		workflow.WithMaxParallel(cfg.Engine.MaxParallel),
		workflow.WithRunTimeout(cfg.Engine.RunTimeout),
		workflow.WithDAGMetrics(collector),
		workflow.WithHistoryStore(workflow.NewExecutionHistoryStore()),
	)

	nodes := []*workflow.DAGNode{
		{Name: "fetch", Task: workflow.NewFuncStep("fetch", func(_ context.Context, _ any) (any, error) {
			return []string{"alpha", "beta", "gamma"}, nil
		})},
		{Name: "clean", DependsOn: []string{"fetch"}, Task: workflow.NewFuncStep("clean", func(_ context.Context, input any) (any, error) {
			wctx := input.(*workflow.Context)
			v, _ := wctx.Get(workflow.ResultKey("fetch"))
			return len(v.([]string)), nil
		})},
		{Name: "enrich", DependsOn: []string{"fetch"}, Task: workflow.NewFuncStep("enrich", func(_ context.Context, _ any) (any, error) {
			return "enriched", nil
		})},
		{Name: "report", DependsOn: []string{"clean", "enrich"}, Task: workflow.NewFuncStep("report", func(_ context.Context, input any) (any, error) {
			wctx := input.(*workflow.Context)
			count, _ := wctx.Get(workflow.ResultKey("clean"))
			return fmt.Sprintf("report over %v records", count), nil
		})},
	}
	for _, node := range nodes {
		if err := executor.AddNode(node); err != nil {
			return err
		}
	}

	result, err := executor.Execute(ctx, workflow.NewContext())
	if err != nil {
		return err
	}
	logger.Info("DAG demo finished",
		zap.String("status", string(result.Status)),
		zap.Any("report", result.Nodes["report"].Value),
	)
	return nil
}

// runSagaDemo 运行一个订单 saga，最后一步失败并触发逆序补偿
func runSagaDemo(ctx context.Context, logger *zap.Logger, collector *metrics.Collector) error {
	executor := saga.NewExecutor("order", logger, saga.WithMetrics(collector))

	steps := []saga.Step{
		saga.NewStep("reserve-stock",
			func(_ context.Context, p any) (any, error) { return p, nil },
			func(_ context.Context, _ any) error { return nil },
		),
		saga.NewStep("charge-card",
			func(_ context.Context, p any) (any, error) { return p, nil },
			func(_ context.Context, _ any) error { return nil },
		),
		saga.NewStep("ship-order",
			func(_ context.Context, _ any) (any, error) { return nil, errors.New("carrier unavailable") },
			nil,
		),
	}
	for _, step := range steps {
		if err := executor.AddStep(step); err != nil {
			return err
		}
	}

	result, err := executor.Execute(ctx, workflow.NewContext(), "order-42")
	if err != nil {
		return err
	}
	logger.Info("saga demo finished",
		zap.String("status", string(result.Status)),
		zap.Int("compensated", len(result.Compensations)),
	)
	return nil
}

// runCrewDemo 运行一个监督者/工作者编组
func runCrewDemo(ctx context.Context, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) error {
	steps := []workflow.Step{
		workflow.NewFuncStep("research", func(_ context.Context, input any) (any, error) {
			return "notes on " + supervisor.Request(input), nil
		}),
		workflow.NewFuncStep("summarize", func(_ context.Context, _ any) (any, error) {
			return "summary", nil
		}),
	}

	crew := supervisor.NewCrew("demo-crew", "lead", steps, logger,
		supervisor.WithGraphOptions(
			graph.WithMaxIterations(cfg.Engine.MaxIterations),
			graph.WithGraphMetrics(collector),
		),
	)
	state, err := crew.Run(ctx, "quarterly trends")
	if err != nil {
		return err
	}
	logger.Info("crew demo finished",
		zap.Bool("finished", state.Finished),
		zap.Int("visits", len(state.History)),
	)
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("FlowCore %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`FlowCore - Workflow Orchestration Engines

Usage:
  flowcore <command> [options]

Commands:
  demo      Run the demonstration pipeline
  version   Show version information
  help      Show this help message

Options for 'demo':
  --config <path>   Path to configuration file (YAML)

Examples:
  flowcore demo
  flowcore demo --config /etc/flowcore/config.yaml
  flowcore version`)
}
