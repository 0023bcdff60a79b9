package xctx

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// 追踪字段 Key 常量，遵循 OpenTelemetry 语义约定（下划线分隔）
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeyRequestID = "request_id"

	// HeaderRequestID 请求 ID 的 HTTP 头
	HeaderRequestID = "X-Request-ID"
)

const keyRequestID = contextKey("xctx:request_id")

// =============================================================================
// Span 标识（只读）
// =============================================================================

// TraceID 返回当前活跃 span 的 trace ID，没有有效 span 时返回空字符串
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID 返回当前活跃 span 的 span ID，没有有效 span 时返回空字符串
func SpanID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}

// =============================================================================
// RequestID
// =============================================================================

// WithRequestID 将 request ID 注入 context
func WithRequestID(ctx context.Context, requestID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if requestID == "" {
		return ctx, ErrEmptyRequestID
	}
	return context.WithValue(ctx, keyRequestID, requestID), nil
}

// RequestID 从 context 提取 request ID，不存在返回空字符串
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

// RequireRequestID 从 context 获取 request ID，不存在则返回 ErrMissingRequestID
func RequireRequestID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := RequestID(ctx)
	if v == "" {
		return "", ErrMissingRequestID
	}
	return v, nil
}

// EnsureRequestID 确保 context 中存在 request ID，缺失时生成 UUIDv4
//
// 返回的 context 与 ID 一一对应；已存在时原样返回。
func EnsureRequestID(ctx context.Context) (context.Context, string, error) {
	if ctx == nil {
		return nil, "", ErrNilContext
	}
	if v := RequestID(ctx); v != "" {
		return ctx, v, nil
	}
	id := uuid.NewString()
	return context.WithValue(ctx, keyRequestID, id), id, nil
}

// =============================================================================
// 日志属性
// =============================================================================

// AppendTraceAttrs 把 context 中存在的追踪字段追加到 attrs
//
// 只追加非空字段：没有活跃 span 时既不输出 trace_id 也不输出 span_id。
func AppendTraceAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		attrs = append(attrs,
			slog.String(KeyTraceID, sc.TraceID().String()),
			slog.String(KeySpanID, sc.SpanID().String()),
		)
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRequestID, v))
	}
	return attrs
}
