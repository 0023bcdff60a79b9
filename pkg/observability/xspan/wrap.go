package xspan

import (
	"context"
	"fmt"
	"time"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// =============================================================================
// 包装选项
// =============================================================================

type wrapConfig struct {
	spanName    string
	kind        Kind
	logStart    bool
	logSuccess  bool
	logError    bool
	captureArgs bool
	attrs       []Attr
}

// WrapOption 配置单次包装的行为。
type WrapOption func(*wrapConfig)

// WithSpanName 覆盖跨度名，默认为 operation。
func WithSpanName(name string) WrapOption {
	return func(c *wrapConfig) { c.spanName = name }
}

// WithKind 设置跨度类型，默认 KindInternal。
func WithKind(kind Kind) WrapOption {
	return func(c *wrapConfig) { c.kind = kind }
}

// WithLogStart 是否在开始时记录 info 日志，默认开启。
func WithLogStart(enabled bool) WrapOption {
	return func(c *wrapConfig) { c.logStart = enabled }
}

// WithLogSuccess 是否在成功时记录 debug 日志，默认开启。
func WithLogSuccess(enabled bool) WrapOption {
	return func(c *wrapConfig) { c.logSuccess = enabled }
}

// WithLogError 是否在失败时记录 error 日志，默认开启。
func WithLogError(enabled bool) WrapOption {
	return func(c *wrapConfig) { c.logError = enabled }
}

// WithCaptureArgs 是否把入参写入 span 属性，默认开启。
func WithCaptureArgs(enabled bool) WrapOption {
	return func(c *wrapConfig) { c.captureArgs = enabled }
}

// WithAttrs 追加固定的 span 属性。
func WithAttrs(attrs ...Attr) WrapOption {
	return func(c *wrapConfig) { c.attrs = append(c.attrs, attrs...) }
}

func newWrapConfig(opts []WrapOption) *wrapConfig {
	cfg := &wrapConfig{
		logStart:    true,
		logSuccess:  true,
		logError:    true,
		captureArgs: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// =============================================================================
// 包装入口
// =============================================================================

// Wrap 把单入参的业务函数包装为带跨度、日志与指标的版本。
//
//	get := xspan.Wrap(tracer, "BooksService", "get", svc.get)
//	book, err := get(ctx, id)
//
// 返回的函数语义与 fn 一致：错误原样返回，panic 记录后继续向上抛出。
func Wrap[In, Out any](t *Tracer, component, operation string, fn func(context.Context, In) (Out, error), opts ...WrapOption) func(context.Context, In) (Out, error) {
	return func(ctx context.Context, in In) (Out, error) {
		return run(ctx, t, component, operation, []any{in}, func(ctx context.Context) (Out, error) {
			return fn(ctx, in)
		}, opts)
	}
}

// Call 立即执行 fn 并返回其结果，适用于无入参的操作。
func Call[Out any](ctx context.Context, t *Tracer, component, operation string, fn func(context.Context) (Out, error), opts ...WrapOption) (Out, error) {
	return run(ctx, t, component, operation, nil, fn, opts)
}

// Do 立即执行只返回 error 的 fn。
func Do(ctx context.Context, t *Tracer, component, operation string, fn func(context.Context) error, opts ...WrapOption) error {
	_, err := run(ctx, t, component, operation, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts)
	return err
}

func run[Out any](ctx context.Context, t *Tracer, component, operation string, args []any, fn func(context.Context) (Out, error), opts []WrapOption) (out Out, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if t == nil {
		return fn(ctx)
	}

	cfg := newWrapConfig(opts)
	name := cfg.spanName
	if name == "" {
		name = operation
	}
	attrs := cfg.attrs
	if cfg.captureArgs && len(args) > 0 {
		attrs = append(append([]Attr(nil), attrs...), CaptureArgs(args...)...)
	}

	ctx, span := Start(ctx, t.observer, SpanOptions{
		Component: component,
		Operation: operation,
		Name:      name,
		Kind:      cfg.kind,
		Attrs:     attrs,
	})
	if cfg.logStart {
		t.logger.Info(ctx, "Executing "+operation, xlog.Context(component))
	}

	start := time.Now()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		perr := fmt.Errorf("panic: %v", r)
		span.End(Result{Status: StatusError, Err: perr})
		t.logger.Stack(ctx, "Error executing "+operation+": "+perr.Error(),
			xlog.Context(component), xlog.Duration(time.Since(start)))
		panic(r)
	}()

	out, err = fn(ctx)
	if err != nil {
		span.End(Result{Status: StatusError, Err: err})
		if cfg.logError {
			t.logger.Error(ctx, "Error executing "+operation+": "+err.Error(),
				xlog.Err(err), xlog.Context(component), xlog.Duration(time.Since(start)))
		}
		return out, err
	}

	span.End(Result{Status: StatusOK})
	if cfg.logSuccess {
		t.logger.Debug(ctx, "Successfully executed "+operation,
			xlog.Context(component), xlog.Duration(time.Since(start)))
	}
	return out, nil
}
