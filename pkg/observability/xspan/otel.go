package xspan

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xscaffold/xspan"
	unknownComponent           = "unknown"
	unknownOperation           = "unknown"

	// AttrComponentName 组件名属性
	AttrComponentName = "component.name"
	// AttrOperationName 操作名属性
	AttrOperationName = "operation.name"

	metricOperationTotal    = "xscaffold.operation.total"
	metricOperationDuration = "xscaffold.operation.duration"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Observer 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，默认使用全局 provider。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认使用全局 provider。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
//
// 默认取全局 provider：otel 全局 provider 是委托实现，
// 之后由生命周期管理器安装的 SDK provider 会自动生效。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	total, err := meter.Int64Counter(
		metricOperationTotal,
		metric.WithDescription("total wrapped operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	duration, err := meter.Float64Histogram(
		metricOperationDuration,
		metric.WithDescription("wrapped operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &otelObserver{
		tracer:   cfg.tracerProvider.Tracer(cfg.instrumentationName),
		total:    total,
		duration: duration,
	}, nil
}

type otelObserver struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// Start 开始一次跨度，父子关系完全由 ctx 中的活跃 span 决定。
func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	component := opts.Component
	if component == "" {
		component = unknownComponent
	}
	operation := opts.Operation
	if operation == "" {
		operation = unknownOperation
	}
	name := opts.Name
	if name == "" {
		name = operation
	}

	attrs := make([]attribute.KeyValue, 0, 2+len(opts.Attrs))
	attrs = append(attrs,
		attribute.String(AttrComponentName, component),
		attribute.String(AttrOperationName, operation),
	)
	attrs = append(attrs, attrsToOTel(opts.Attrs)...)

	ctx, span := o.tracer.Start(ctx, name,
		trace.WithSpanKind(mapSpanKind(opts.Kind)),
		trace.WithAttributes(attrs...),
	)

	return ctx, &otelSpan{
		span:      span,
		observer:  o,
		ctx:       ctx,
		component: component,
		operation: operation,
		start:     time.Now(),
	}
}

type otelSpan struct {
	span      trace.Span
	observer  *otelObserver
	ctx       context.Context
	component string
	operation string
	start     time.Time
	endOnce   sync.Once
}

func (s *otelSpan) SetAttributes(attrs ...Attr) {
	if kvs := attrsToOTel(attrs); len(kvs) > 0 {
		s.span.SetAttributes(kvs...)
	}
}

// End 结束跨度并记录结果，幂等。
func (s *otelSpan) End(result Result) {
	if s == nil {
		return
	}
	s.endOnce.Do(func() {
		status := resolveStatus(result)

		if len(result.Attrs) > 0 {
			s.span.SetAttributes(attrsToOTel(result.Attrs)...)
		}
		switch status {
		case StatusError:
			if result.Err != nil {
				s.span.RecordError(result.Err)
				s.span.SetStatus(codes.Error, result.Err.Error())
			} else {
				s.span.SetStatus(codes.Error, "operation failed")
			}
		default:
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.End()

		// 请求 ctx 可能已取消，指标仍需记录
		metricsCtx := context.WithoutCancel(s.ctx)
		attrs := metric.WithAttributes(
			attribute.String("component", s.component),
			attribute.String("operation", s.operation),
			attribute.String("status", string(status)),
		)
		s.observer.total.Add(metricsCtx, 1, attrs)
		s.observer.duration.Record(metricsCtx, time.Since(s.start).Seconds(), attrs)
	})
}

func resolveStatus(result Result) Status {
	if result.Status != "" {
		return result.Status
	}
	if result.Err != nil {
		return StatusError
	}
	return StatusOK
}

func mapSpanKind(kind Kind) trace.SpanKind {
	switch kind {
	case KindServer:
		return trace.SpanKindServer
	case KindClient:
		return trace.SpanKindClient
	default:
		return trace.SpanKindInternal
	}
}

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	converted := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" || attr.Value == nil {
			continue
		}
		converted = append(converted, toKeyValue(attr))
	}
	return converted
}

func toKeyValue(attr Attr) attribute.KeyValue {
	switch v := attr.Value.(type) {
	case string:
		return attribute.String(attr.Key, v)
	case bool:
		return attribute.Bool(attr.Key, v)
	case int:
		return attribute.Int(attr.Key, v)
	case int32:
		return attribute.Int64(attr.Key, int64(v))
	case int64:
		return attribute.Int64(attr.Key, v)
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return attribute.Int64(attr.Key, int64(v))
		}
		return attribute.String(attr.Key, fmt.Sprint(v))
	case uint32:
		return attribute.Int64(attr.Key, int64(v))
	case uint64:
		if v <= math.MaxInt64 {
			return attribute.Int64(attr.Key, int64(v))
		}
		return attribute.String(attr.Key, fmt.Sprint(v))
	case float64:
		return attribute.Float64(attr.Key, v)
	case float32:
		return attribute.Float64(attr.Key, float64(v))
	case time.Duration:
		return attribute.Int64(attr.Key, v.Nanoseconds())
	default:
		return attribute.String(attr.Key, fmt.Sprint(v))
	}
}
