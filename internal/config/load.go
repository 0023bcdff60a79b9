package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/omeyang/xscaffold/pkg/config/xconf"
	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// envHeaders OTLP 导出请求头，JSON 对象，同时作用于追踪与远程日志
const envHeaders = "OTLP_HEADERS"

// envBindings 环境变量到配置键的映射
var envBindings = []xconf.EnvBinding{
	{Env: "SERVICE_NAME", Key: "service.name"},
	{Env: "SERVICE_VERSION", Key: "service.version"},
	{Env: "APP_ENV", Key: "service.environment"},
	{Env: "HTTP_ADDR", Key: "server.addr"},
	{Env: "LOG_LEVEL", Key: "logging.level"},
	{Env: "LOG_FORMAT", Key: "logging.format"},
	{Env: "LOG_FILE", Key: "logging.file"},
	{Env: "OTLP_LOGS_ENABLED", Key: "logging.remote.enabled"},
	{Env: "OTLP_LOGS_ENDPOINT", Key: "logging.remote.endpoint"},
	{Env: "METRICS_ENABLED", Key: "metrics.enabled"},
	{Env: "METRICS_ENDPOINT", Key: "metrics.path"},
	{Env: "METRICS_DEFAULT_PREFIX", Key: "metrics.default_prefix"},
	{Env: "TRACING_ENABLED", Key: "tracing.enabled"},
	{Env: "TRACING_SAMPLER_TYPE", Key: "tracing.sampler.type"},
	{Env: "TRACING_SAMPLER_RATIO", Key: "tracing.sampler.ratio"},
	{Env: "TRACING_EXPORTER", Key: "tracing.exporter.protocol"},
	{Env: "OTLP_TRACES_ENDPOINT", Key: "tracing.exporter.endpoint"},
	{Env: "TRACING_INSTRUMENT_HTTP", Key: "tracing.instrumentations.http"},
	{Env: "TRACING_INSTRUMENT_FRAMEWORK", Key: "tracing.instrumentations.framework"},
	{Env: "TRACING_INSTRUMENT_LOGGER", Key: "tracing.instrumentations.logger"},
}

// Load 依次叠加默认值、配置文件（path 为空时跳过）与进程环境变量。
func Load(path string) (*Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith 与 Load 相同，环境变量由 lookup 提供。
func LoadWith(path string, lookup xconf.LookupFunc) (*Config, error) {
	opts := []xconf.Option{
		xconf.WithDefaults(defaultValues(Default())),
		xconf.WithOverrides(xconf.EnvOverrides(envBindings, lookup)),
	}

	headers, err := headersFromEnv(lookup)
	if err != nil {
		return nil, err
	}
	if headers != nil {
		opts = append(opts, xconf.WithOverrides(map[string]any{
			"tracing.exporter.headers": headers,
			"logging.remote.headers":   headers,
		}))
	}

	var src *xconf.Config
	if path != "" {
		src, err = xconf.New(path, opts...)
	} else {
		src, err = xconf.NewFromBytes(nil, xconf.FormatYAML, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}

	var cfg Config
	if err := src.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize 把可回退的非法取值替换为默认值，并记录到 Warnings
func (c *Config) normalize() {
	if c.Service.Version == "" {
		c.Service.Version = Version
	}

	if _, err := xlog.ParseLevel(c.Logging.Level); err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("unknown log level %q, using info", c.Logging.Level))
		c.Logging.Level = "info"
	}

	def := FormatText
	if c.Production() {
		def = FormatJSON
	}
	switch f := strings.ToLower(strings.TrimSpace(c.Logging.Format)); f {
	case FormatText, FormatJSON:
		c.Logging.Format = f
	case "":
		c.Logging.Format = def
	default:
		c.Warnings = append(c.Warnings, fmt.Sprintf("unknown log format %q, using %s", c.Logging.Format, def))
		c.Logging.Format = def
	}
}

func headersFromEnv(lookup xconf.LookupFunc) (map[string]any, error) {
	if lookup == nil {
		return nil, nil
	}
	raw, ok := lookup(envHeaders)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var headers map[string]string
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeaders, err)
	}
	out := make(map[string]any, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out, nil
}

// defaultValues 把默认配置展开为 xconf 默认值层
func defaultValues(d Config) map[string]any {
	return map[string]any{
		"service.name":                       d.Service.Name,
		"service.version":                    d.Service.Version,
		"service.environment":                d.Service.Environment,
		"server.addr":                        d.Server.Addr,
		"server.shutdown_timeout":            d.Server.ShutdownTimeout,
		"logging.level":                      d.Logging.Level,
		"logging.format":                     d.Logging.Format,
		"logging.file":                       d.Logging.File,
		"logging.remote.enabled":             d.Logging.Remote.Enabled,
		"logging.remote.endpoint":            d.Logging.Remote.Endpoint,
		"metrics.enabled":                    d.Metrics.Enabled,
		"metrics.path":                       d.Metrics.Path,
		"metrics.default_prefix":             d.Metrics.DefaultPrefix,
		"tracing.enabled":                    d.Tracing.Enabled,
		"tracing.sampler.type":               d.Tracing.Sampler.Type,
		"tracing.sampler.ratio":              d.Tracing.Sampler.Ratio,
		"tracing.exporter.protocol":          d.Tracing.Exporter.Protocol,
		"tracing.exporter.endpoint":          d.Tracing.Exporter.Endpoint,
		"tracing.exporter.insecure":          d.Tracing.Exporter.Insecure,
		"tracing.instrumentations.http":      d.Tracing.Instrumentations.HTTP,
		"tracing.instrumentations.framework": d.Tracing.Instrumentations.Framework,
		"tracing.instrumentations.logger":    d.Tracing.Instrumentations.Logger,
		"tracing.settle_delay":               d.Tracing.SettleDelay,
	}
}
