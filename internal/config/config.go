// Package config 定义服务配置：默认值、配置文件与环境变量三层叠加。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xscaffold/pkg/observability/xotel"
)

// Version 构建版本，通过 -ldflags "-X github.com/omeyang/xscaffold/internal/config.Version=..." 注入。
var Version = "dev"

// 环境名称
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// 日志格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config 服务配置，加载后只读。
type Config struct {
	Service ServiceConfig `koanf:"service"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`

	// Warnings 加载过程中被回退为默认值的配置项，由调用方在日志就绪后输出。
	Warnings []string `koanf:"-"`
}

// ServiceConfig 服务标识。
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig 日志配置。
type LoggingConfig struct {
	Level  string          `koanf:"level"`
	Format string          `koanf:"format"`
	File   string          `koanf:"file"`
	Remote RemoteLogConfig `koanf:"remote"`
}

// RemoteLogConfig 远程日志（OTLP）配置。
type RemoteLogConfig struct {
	Enabled  bool              `koanf:"enabled"`
	Endpoint string            `koanf:"endpoint"`
	Headers  map[string]string `koanf:"headers"`
}

// MetricsConfig 指标配置。
type MetricsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Path          string `koanf:"path"`
	DefaultPrefix string `koanf:"default_prefix"`
}

// TracingConfig 追踪配置。
type TracingConfig struct {
	Enabled          bool                   `koanf:"enabled"`
	Sampler          SamplerConfig          `koanf:"sampler"`
	Exporter         ExporterConfig         `koanf:"exporter"`
	Instrumentations InstrumentationsConfig `koanf:"instrumentations"`
	SettleDelay      time.Duration          `koanf:"settle_delay"`
}

// SamplerConfig 采样器配置。
type SamplerConfig struct {
	Type  string  `koanf:"type"`
	Ratio float64 `koanf:"ratio"`
}

// ExporterConfig span 导出配置。
type ExporterConfig struct {
	Protocol string            `koanf:"protocol"`
	Endpoint string            `koanf:"endpoint"`
	Headers  map[string]string `koanf:"headers"`
	Insecure bool              `koanf:"insecure"`
}

// InstrumentationsConfig 埋点开关。
type InstrumentationsConfig struct {
	HTTP      bool `koanf:"http"`
	Framework bool `koanf:"framework"`
	Logger    bool `koanf:"logger"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Name:        "xscaffold",
			Version:     Version,
			Environment: EnvDevelopment,
		},
		Server: ServerConfig{
			Addr:            ":3000",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			Remote: RemoteLogConfig{
				Endpoint: "http://localhost:4318/v1/logs",
			},
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			Path:          "/metrics",
			DefaultPrefix: "app_",
		},
		Tracing: TracingConfig{
			Enabled: true,
			Sampler: SamplerConfig{
				Type: xotel.SamplerAlwaysOn,
				// 0 表示未指定，trace_id_ratio 时使用 xotel.DefaultRatio
				Ratio: 0,
			},
			Exporter: ExporterConfig{
				Protocol: xotel.ProtocolHTTP,
				Endpoint: "http://localhost:4318/v1/traces",
			},
			Instrumentations: InstrumentationsConfig{
				HTTP:      true,
				Framework: true,
				Logger:    true,
			},
		},
	}
}

// Production 报告是否运行在生产环境。
func (c *Config) Production() bool {
	return strings.EqualFold(c.Service.Environment, EnvProduction)
}

// OTel 转换为追踪管线配置。
func (c *Config) OTel() xotel.Config {
	return xotel.Config{
		Enabled:        c.Tracing.Enabled,
		ServiceName:    c.Service.Name,
		ServiceVersion: c.Service.Version,
		Environment:    c.Service.Environment,
		Sampler: xotel.SamplerConfig{
			Type:  c.Tracing.Sampler.Type,
			Ratio: c.Tracing.Sampler.Ratio,
		},
		Exporter: xotel.ExporterConfig{
			Protocol: c.Tracing.Exporter.Protocol,
			Endpoint: c.Tracing.Exporter.Endpoint,
			Headers:  c.Tracing.Exporter.Headers,
			Insecure: c.Tracing.Exporter.Insecure,
		},
		Instrumentations: xotel.InstrumentationConfig{
			HTTP:      c.Tracing.Instrumentations.HTTP,
			Framework: c.Tracing.Instrumentations.Framework,
			Logger:    c.Tracing.Instrumentations.Logger,
		},
		SettleDelay: c.Tracing.SettleDelay,
	}
}

// Validate 校验无法回退的配置项。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Service.Name) == "" {
		return fmt.Errorf("%w: service.name is empty", ErrInvalidConfig)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("%w: metrics.path %q must start with /", ErrInvalidConfig, c.Metrics.Path)
	}
	switch strings.ToLower(c.Tracing.Exporter.Protocol) {
	case xotel.ProtocolHTTP, xotel.ProtocolGRPC, xotel.ProtocolStdout:
	default:
		return fmt.Errorf("%w: tracing.exporter.protocol %q", ErrInvalidConfig, c.Tracing.Exporter.Protocol)
	}
	return nil
}
