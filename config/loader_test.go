package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	assert.Equal(t, 0, cfg.Engine.MaxParallel)
	assert.Equal(t, 5*time.Minute, cfg.Engine.RunTimeout)
	assert.Equal(t, 100, cfg.Engine.MaxIterations)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "flowcore", cfg.Telemetry.ServiceName)
}

func TestLoader_Load_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_Load_FromYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "flowcore.yaml")
	content := `
engine:
  max_parallel: 8
  run_timeout: 30s
  max_iterations: 50
log:
  level: debug
  format: console
telemetry:
  enabled: true
  otlp_endpoint: collector:4317
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Engine.MaxParallel)
	assert.Equal(t, 30*time.Second, cfg.Engine.RunTimeout)
	assert.Equal(t, 50, cfg.Engine.MaxIterations)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)

	// 文件未覆盖的字段保留默认值
	assert.Equal(t, "flowcore", cfg.Telemetry.ServiceName)
}

func TestLoader_Load_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := NewLoader().WithConfigPath("/nonexistent/flowcore.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_Load_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [not a map"), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
}

func TestLoader_Load_EnvOverrides(t *testing.T) {
	t.Setenv("FLOWCORE_TEST_ENGINE_MAX_PARALLEL", "4")
	t.Setenv("FLOWCORE_TEST_ENGINE_RUN_TIMEOUT", "90s")
	t.Setenv("FLOWCORE_TEST_LOG_LEVEL", "warn")
	t.Setenv("FLOWCORE_TEST_LOG_OUTPUT_PATHS", "stdout, /var/log/flowcore.log")
	t.Setenv("FLOWCORE_TEST_TELEMETRY_ENABLED", "true")
	t.Setenv("FLOWCORE_TEST_TELEMETRY_SAMPLE_RATE", "0.25")

	cfg, err := NewLoader().WithEnvPrefix("FLOWCORE_TEST").Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Engine.MaxParallel)
	assert.Equal(t, 90*time.Second, cfg.Engine.RunTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"stdout", "/var/log/flowcore.log"}, cfg.Log.OutputPaths)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRate, 1e-9)
}

func TestLoader_Load_EnvInvalidValue(t *testing.T) {
	t.Setenv("FLOWCORE_BAD_ENGINE_MAX_PARALLEL", "not-a-number")

	_, err := NewLoader().WithEnvPrefix("FLOWCORE_BAD").Load()
	require.Error(t, err)
}

func TestLoader_Load_ValidatorRejects(t *testing.T) {
	t.Parallel()
	_, err := NewLoader().WithValidator(func(cfg *Config) error {
		if cfg.Engine.MaxIterations <= 0 {
			return assert.AnError
		}
		return nil
	}).Load()
	require.NoError(t, err)

	_, err = NewLoader().WithValidator(func(*Config) error {
		return assert.AnError
	}).Load()
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(DefaultLogConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("json logger works")

	logger, err = NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	// 未知级别回落到 info
	logger, err = NewLogger(LogConfig{Level: "verbose"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1), "debug should be disabled")
}
