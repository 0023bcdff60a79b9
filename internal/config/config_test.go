package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xscaffold/pkg/observability/xotel"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWith("", envOf(nil))
	require.NoError(t, err)

	want := Default()
	want.Logging.Format = FormatText
	assert.Equal(t, want, *cfg)
	assert.Empty(t, cfg.Warnings)
	assert.False(t, cfg.Production())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
service:
  name: from-file
  environment: production
server:
  addr: ":4000"
tracing:
  sampler:
    type: trace_id_ratio
    ratio: 0.5
  exporter:
    protocol: grpc
    headers:
      x-file: "1"
`)
	cfg, err := LoadWith(path, envOf(map[string]string{
		"HTTP_ADDR":                    ":5000",
		"TRACING_SAMPLER_RATIO":        "0.2",
		"TRACING_INSTRUMENT_FRAMEWORK": "false",
		"METRICS_ENABLED":              "false",
		"OTLP_HEADERS":                 `{"x-api-key":"secret"}`,
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Service.Name)
	assert.Equal(t, ":5000", cfg.Server.Addr, "环境变量覆盖文件")
	assert.Equal(t, xotel.SamplerTraceIDRatio, cfg.Tracing.Sampler.Type)
	assert.InDelta(t, 0.2, cfg.Tracing.Sampler.Ratio, 1e-9)
	assert.Equal(t, xotel.ProtocolGRPC, cfg.Tracing.Exporter.Protocol)
	assert.Equal(t, map[string]string{"x-file": "1", "x-api-key": "secret"}, cfg.Tracing.Exporter.Headers)
	assert.Equal(t, map[string]string{"x-api-key": "secret"}, cfg.Logging.Remote.Headers)
	assert.False(t, cfg.Tracing.Instrumentations.Framework)
	assert.True(t, cfg.Tracing.Instrumentations.HTTP)
	assert.False(t, cfg.Metrics.Enabled)

	assert.True(t, cfg.Production())
	assert.Equal(t, FormatJSON, cfg.Logging.Format, "生产环境默认 json")
}

func TestLoad_RatioSamplerWithoutRatioUsesDefault(t *testing.T) {
	cfg, err := LoadWith("", envOf(map[string]string{
		"TRACING_SAMPLER_TYPE": xotel.SamplerTraceIDRatio,
	}))
	require.NoError(t, err)
	assert.Zero(t, cfg.Tracing.Sampler.Ratio)

	s := xotel.NewSampler(cfg.OTel().Sampler, nil)
	assert.Contains(t, s.Description(), fmt.Sprintf("TraceIDRatio{%g}", xotel.DefaultRatio))
}

func TestLoad_InvalidHeaders(t *testing.T) {
	_, err := LoadWith("", envOf(map[string]string{"OTLP_HEADERS": "not-json"}))
	assert.ErrorIs(t, err, ErrInvalidHeaders)
}

func TestLoad_FallbackWarnings(t *testing.T) {
	cfg, err := LoadWith("", envOf(map[string]string{
		"LOG_LEVEL":  "loud",
		"LOG_FORMAT": "xml",
	}))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, FormatText, cfg.Logging.Format)
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoad_ExplicitFormatWins(t *testing.T) {
	cfg, err := LoadWith("", envOf(map[string]string{
		"APP_ENV":    "production",
		"LOG_FORMAT": "TEXT",
	}))
	require.NoError(t, err)
	assert.Equal(t, FormatText, cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadWith(filepath.Join(t.TempDir(), "absent.yaml"), envOf(nil))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Service.Name = " " }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"protocol", func(c *Config) { c.Tracing.Exporter.Protocol = "zipkin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_OTel(t *testing.T) {
	cfg := Default()
	cfg.Tracing.SettleDelay = time.Second
	cfg.Tracing.Exporter.Headers = map[string]string{"k": "v"}

	got := cfg.OTel()
	assert.True(t, got.Enabled)
	assert.Equal(t, "xscaffold", got.ServiceName)
	assert.Equal(t, Version, got.ServiceVersion)
	assert.Equal(t, EnvDevelopment, got.Environment)
	assert.Equal(t, xotel.SamplerAlwaysOn, got.Sampler.Type)
	assert.Equal(t, "http://localhost:4318/v1/traces", got.Exporter.Endpoint)
	assert.Equal(t, map[string]string{"k": "v"}, got.Exporter.Headers)
	assert.Equal(t, time.Second, got.SettleDelay)
	assert.Equal(t, []string{"http", "framework", "logger"},
		xotel.ResolveInstrumentations(got.Instrumentations).Names())
}
