package xspan

import (
	"context"
	"strconv"
)

// Kind 表示跨度类型。
type Kind int

const (
	// KindInternal 表示内部操作。
	KindInternal Kind = iota
	// KindServer 表示服务端处理。
	KindServer
	// KindClient 表示客户端调用。
	KindClient
)

// String 返回 Kind 的可读字符串表示。
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindServer:
		return "Server"
	case KindClient:
		return "Client"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 表示跨度结束状态。
type Status string

const (
	// StatusOK 表示成功。
	StatusOK Status = "ok"
	// StatusError 表示失败。
	StatusError Status = "error"
)

// Attr 表示跨度属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 定义跨度的创建参数。
type SpanOptions struct {
	// Component 组件名，记录为 component.name。
	Component string
	// Operation 操作名，记录为 operation.name；也是默认的跨度名。
	Operation string
	// Name 覆盖跨度名，为空时使用 Operation。
	Name string
	// Kind 跨度类型。
	Kind Kind
	// Attrs 附加属性。
	Attrs []Attr
}

// Result 表示跨度结束时的结果。
type Result struct {
	// Status 为空时根据 Err 推导。
	Status Status
	// Err 操作错误，记录为 span exception。
	Err error
	// Attrs 附加属性。
	Attrs []Attr
}

// Span 表示一次跨度。
type Span interface {
	// SetAttributes 追加属性，End 之后调用无效。
	SetAttributes(attrs ...Attr)
	// End 结束跨度并记录结果，多次调用只生效一次。
	End(result Result)
}

// Observer 创建跨度。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

// Start 返回 ctx 和空跨度。
func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 是空跨度实现。
type NoopSpan struct{}

// SetAttributes 空实现。
func (NoopSpan) SetAttributes(...Attr) {}

// End 空实现。
func (NoopSpan) End(Result) {}

// Start 使用 observer 开始跨度。
//
// 保证返回非 nil 的 context 和 Span：nil ctx 替换为 context.Background()，
// nil observer 或 observer 返回 nil Span 时兜底为 [NoopSpan]。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}
