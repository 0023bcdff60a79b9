package xtrace

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// Span 属性
const (
	AttrClassName  = "class.name"
	AttrMethodName = "method.name"
)

// MethodInterceptor 处理器级拦截器：在请求 span 之下为每次处理器调用建立子 span。
//
// 只在失败时记录日志；成功路径的日志由请求拦截器负责。
type MethodInterceptor struct {
	logger xlog.Logger
	tracer trace.Tracer
}

// NewMethodInterceptor 创建处理器级拦截器，只使用 WithTracerProvider 选项。
func NewMethodInterceptor(logger xlog.Logger, opts ...Option) (*MethodInterceptor, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	cfg := applyOptions(opts)
	return &MethodInterceptor{
		logger: logger,
		tracer: cfg.tracerProvider.Tracer(instrumentationName),
	}, nil
}

// Gin 返回 gin 中间件，类名与方法名由 c.HandlerName() 推导，见 [HandlerNameParts]。
func (m *MethodInterceptor) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		class, method := HandlerNameParts(c.HandlerName())
		call := m.begin(c.Request, class, method)
		c.Request = c.Request.WithContext(call.ctx)

		defer func() {
			if rec := recover(); rec != nil {
				m.end(call, panicError(rec), http.StatusInternalServerError, true)
				panic(rec)
			}
		}()

		c.Next()

		var err error
		if last := c.Errors.Last(); last != nil {
			err = last.Err
		}
		m.end(call, err, c.Writer.Status(), false)
	}
}

// Wrap 为 net/http 处理器建立处理器级 span。
func (m *MethodInterceptor) Wrap(class, method string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := m.begin(r, class, method)
		sw := newStatusWriter(w)

		defer func() {
			if rec := recover(); rec != nil {
				m.end(call, panicError(rec), http.StatusInternalServerError, true)
				panic(rec)
			}
		}()

		h.ServeHTTP(sw, r.WithContext(call.ctx))
		m.end(call, nil, sw.Status(), false)
	})
}

type methodCall struct {
	ctx   context.Context
	span  trace.Span
	name  string
	class string
	start time.Time
}

func (m *MethodInterceptor) begin(r *http.Request, class, method string) *methodCall {
	name := class + "." + method
	ctx, span := m.tracer.Start(r.Context(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrClassName, class),
			attribute.String(AttrMethodName, method),
			attribute.String(AttrHTTPMethod, r.Method),
			attribute.String(AttrHTTPPath, r.URL.Path),
		),
	)
	return &methodCall{ctx: ctx, span: span, name: name, class: class, start: time.Now()}
}

// end 处理器错误或 5xx 视为失败
func (m *MethodInterceptor) end(call *methodCall, err error, status int, panicked bool) {
	defer call.span.End()

	if err == nil && status < http.StatusInternalServerError {
		call.span.SetStatus(codes.Ok, "")
		return
	}

	msg := http.StatusText(status)
	if err != nil {
		call.span.RecordError(err, trace.WithStackTrace(panicked))
		msg = err.Error()
	}
	call.span.SetStatus(codes.Error, msg)
	m.logger.Error(call.ctx, "Error in "+call.name+": "+msg,
		xlog.Err(err), xlog.Context(call.class),
		xlog.StatusCode(status), xlog.Duration(time.Since(call.start)))
}

// HandlerNameParts 把 gin 处理器名拆为类名与方法名。
//
//	github.com/x/internal/books.(*Controller).List-fm → books.Controller, List
//	main.healthz                                      → main, healthz
func HandlerNameParts(name string) (class, method string) {
	name = strings.TrimSuffix(name, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	pkg, rest, ok := strings.Cut(name, ".")
	if !ok {
		return "unknown", name
	}
	if strings.HasPrefix(rest, "(") {
		if end := strings.Index(rest, ")."); end > 0 {
			recv := strings.TrimPrefix(rest[1:end], "*")
			return pkg + "." + recv, rest[end+2:]
		}
	}
	if recv, meth, ok := strings.Cut(rest, "."); ok && !strings.HasPrefix(meth, "func") {
		// 值接收者：books.Controller.List
		return pkg + "." + recv, meth
	}
	return pkg, rest
}
