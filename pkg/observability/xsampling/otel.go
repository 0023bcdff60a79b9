package xsampling

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// OTelSampler 把 Sampler 适配为 OTel SDK 采样器。
//
// 待决策 span 的 trace id 通过 [ContextWithTraceID] 放入 ctx，
// 因此配合 [TraceIDKey] 的 KeyBasedSampler 对同一 trace 的决策一致。
// 父级 tracestate 原样透传。
func OTelSampler(s Sampler, description string) sdktrace.Sampler {
	if s == nil {
		s = Always()
	}
	if description == "" {
		description = "xsampling"
	}
	return &otelSampler{sampler: s, description: description}
}

type otelSampler struct {
	sampler     Sampler
	description string
}

func (o *otelSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	ctx := ContextWithTraceID(p.ParentContext, p.TraceID.String())
	decision := sdktrace.Drop
	if o.sampler.ShouldSample(ctx) {
		decision = sdktrace.RecordAndSample
	}
	return sdktrace.SamplingResult{
		Decision:   decision,
		Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
	}
}

func (o *otelSampler) Description() string {
	return o.description
}
