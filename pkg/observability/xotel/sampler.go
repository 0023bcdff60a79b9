package xotel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xsampling"
)

// 与 SDK 内置采样器一致的描述
const (
	descAlwaysOn  = "AlwaysOnSampler"
	descAlwaysOff = "AlwaysOffSampler"
)

// NewSampler 根据配置创建 span 采样器。
//
//   - always_on / always_off：全采 / 全不采
//   - trace_id_ratio：按 trace id 哈希（xxhash）做确定性比例采样，
//     比例 ≤0 时使用 [DefaultRatio]，>1 时按 1 处理；有父 span 时跟随父决策
//   - 其他：记录一条告警并回退为 always_on
//
// logger 为 nil 时不输出告警。
func NewSampler(cfg SamplerConfig, logger xlog.Logger) sdktrace.Sampler {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case SamplerAlwaysOn:
		return alwaysOn()
	case SamplerAlwaysOff:
		return xsampling.OTelSampler(xsampling.Never(), descAlwaysOff)
	case SamplerTraceIDRatio:
		ratio := cfg.Ratio
		if ratio <= 0 {
			ratio = DefaultRatio
		}
		ratio = min(ratio, 1)
		ks, err := xsampling.NewKeyBasedSampler(ratio, xsampling.TraceIDKey)
		if err != nil {
			warn(logger, "Invalid trace id ratio sampler, falling back to always_on", xlog.Err(err))
			return alwaysOn()
		}
		desc := fmt.Sprintf("TraceIDRatio{%g}", ratio)
		return sdktrace.ParentBased(xsampling.OTelSampler(ks, desc))
	default:
		warn(logger, "Unknown sampler type, falling back to always_on",
			slog.String("sampler", cfg.Type))
		return alwaysOn()
	}
}

func alwaysOn() sdktrace.Sampler {
	return xsampling.OTelSampler(xsampling.Always(), descAlwaysOn)
}

func warn(logger xlog.Logger, msg string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	logger.Warn(context.Background(), msg, attrs...)
}
