package xotel

import "time"

// 采样器类型
const (
	SamplerAlwaysOn     = "always_on"
	SamplerAlwaysOff    = "always_off"
	SamplerTraceIDRatio = "trace_id_ratio"
)

// 导出协议
const (
	ProtocolHTTP   = "http"
	ProtocolGRPC   = "grpc"
	ProtocolStdout = "stdout"
)

// DefaultRatio trace_id_ratio 采样在比例未配置（≤0）时使用的比例。
const DefaultRatio = 0.1

// Config 追踪管线配置，初始化后不再变化。
type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	Sampler          SamplerConfig
	Exporter         ExporterConfig
	Instrumentations InstrumentationConfig

	// SettleDelay 安装 Provider 之前的等待时间，给导出端留出建连时间。
	SettleDelay time.Duration
}

// SamplerConfig 采样器配置。
type SamplerConfig struct {
	Type  string
	Ratio float64
}

// ExporterConfig span 导出配置。
//
// Endpoint 为完整 URL（http://host:4318/v1/traces）；grpc 协议同样接受 URL 形式，
// http 方案自动使用明文连接。
type ExporterConfig struct {
	Protocol string
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// InstrumentationConfig 可开关的自动埋点能力。
type InstrumentationConfig struct {
	HTTP      bool
	Framework bool
	Logger    bool
}
