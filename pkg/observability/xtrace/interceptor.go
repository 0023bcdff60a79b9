package xtrace

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xscaffold/pkg/context/xctx"
	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// Span 属性
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPURL        = "http.url"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPPath       = "http.path"
	AttrRequestID      = "http.request_id"
)

// HTTPRecorder 记录请求指标，*xmetrics.HTTPMetrics 实现了此接口。
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, statusCode int, d time.Duration) error
}

// Interceptor 请求级拦截器：每个入站请求一个 server span、一条请求指标。
//
// 同一个 Interceptor 可同时用于 net/http（[Interceptor.Middleware]）与 gin（[Interceptor.Gin]）。
type Interceptor struct {
	logger     xlog.Logger
	recorder   HTTPRecorder
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	routes     *RouteNormalizer
	routeFunc  func(*http.Request) string
	skipPaths  map[string]struct{}
}

// NewInterceptor 创建请求拦截器。
func NewInterceptor(logger xlog.Logger, recorder HTTPRecorder, opts ...Option) (*Interceptor, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if recorder == nil {
		return nil, ErrNilRecorder
	}
	cfg := applyOptions(opts)
	routes, err := NewRouteNormalizer(cfg.routeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Interceptor{
		logger:     logger,
		recorder:   recorder,
		tracer:     cfg.tracerProvider.Tracer(instrumentationName),
		propagator: cfg.propagator,
		routes:     routes,
		routeFunc:  cfg.routeFunc,
		skipPaths:  cfg.skipPaths,
	}, nil
}

// =============================================================================
// 适配器
// =============================================================================

// Middleware 返回 net/http 中间件。
//
// 路由模板优先取 WithRouteFunc，其次取 ServeMux 写入的 Request.Pattern（去掉方法前缀），
// 都没有时使用归一化后的原始路径。
func (i *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i.skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		ex := i.begin(w.Header(), r, i.route(r, ""))
		sw := newStatusWriter(w)
		req := r.WithContext(ex.ctx)

		defer func() {
			if rec := recover(); rec != nil {
				err := panicError(rec)
				ex.route = i.route(req, "")
				i.fail(ex, StatusFromError(err), err, true)
				panic(rec)
			}
		}()

		next.ServeHTTP(sw, req)

		// ServeMux 在分发时才写入 Pattern
		ex.route = i.route(req, "")
		i.end(ex, sw.Status())
	})
}

// Gin 返回 gin 中间件。
//
// 路由模板取 c.FullPath()；处理器通过 c.Error 上报的错误视为失败，
// 响应未写入错误状态码时以 StatusCoder 或 500 记录。
func (i *Interceptor) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if i.skip(c.Request) {
			c.Next()
			return
		}

		ex := i.begin(c.Writer.Header(), c.Request, i.route(c.Request, c.FullPath()))
		c.Request = c.Request.WithContext(ex.ctx)

		defer func() {
			if rec := recover(); rec != nil {
				err := panicError(rec)
				i.fail(ex, StatusFromError(err), err, true)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if last := c.Errors.Last(); last != nil {
			if status < http.StatusBadRequest {
				status = StatusFromError(last.Err)
			}
			i.fail(ex, status, last.Err, false)
			return
		}
		i.end(ex, status)
	}
}

// =============================================================================
// 请求生命周期
// =============================================================================

type exchange struct {
	ctx    context.Context
	span   trace.Span
	method string
	route  string
	start  time.Time
}

// begin 提取上游上下文、开启 server span、确保 request id
func (i *Interceptor) begin(respHeader http.Header, r *http.Request, route string) *exchange {
	ctx := i.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	if reqID := strings.TrimSpace(r.Header.Get(xctx.HeaderRequestID)); reqID != "" {
		if withID, err := xctx.WithRequestID(ctx, reqID); err == nil {
			ctx = withID
		}
	}
	ctx, reqID, err := xctx.EnsureRequestID(ctx)
	if err == nil {
		respHeader.Set(xctx.HeaderRequestID, reqID)
	}

	ctx, span := i.tracer.Start(ctx, r.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrHTTPMethod, r.Method),
			attribute.String(AttrHTTPURL, r.URL.String()),
			attribute.String(AttrHTTPRoute, route),
			attribute.String(AttrRequestID, reqID),
		),
	)

	i.logger.Debug(ctx, "Incoming request",
		xlog.Method(r.Method), xlog.Path(r.URL.Path), xlog.Route(route))

	return &exchange{ctx: ctx, span: span, method: r.Method, route: route, start: time.Now()}
}

// end 正常完成：状态码 < 400 为 Ok，否则为 Error
func (i *Interceptor) end(ex *exchange, status int) {
	d := time.Since(ex.start)
	i.record(ex, status, d)

	ex.span.SetName(ex.method + " " + ex.route)
	ex.span.SetAttributes(
		attribute.String(AttrHTTPRoute, ex.route),
		attribute.Int(AttrHTTPStatusCode, status),
	)
	if status >= http.StatusBadRequest {
		ex.span.SetStatus(codes.Error, http.StatusText(status))
	} else {
		ex.span.SetStatus(codes.Ok, "")
	}
	ex.span.End()

	i.logger.Debug(ex.ctx, "Request completed",
		xlog.Method(ex.method), xlog.Route(ex.route), xlog.StatusCode(status), xlog.Duration(d))
}

// fail 处理器返回错误或 panic
func (i *Interceptor) fail(ex *exchange, status int, err error, panicked bool) {
	d := time.Since(ex.start)
	i.record(ex, status, d)

	ex.span.SetName(ex.method + " " + ex.route)
	ex.span.SetAttributes(
		attribute.String(AttrHTTPRoute, ex.route),
		attribute.Int(AttrHTTPStatusCode, status),
	)
	ex.span.RecordError(err, trace.WithStackTrace(panicked))
	ex.span.SetStatus(codes.Error, err.Error())
	ex.span.End()

	i.logger.Stack(ex.ctx, "Request failed: "+err.Error(),
		xlog.Err(err), xlog.Method(ex.method), xlog.Route(ex.route),
		xlog.StatusCode(status), xlog.Duration(d))
}

func (i *Interceptor) record(ex *exchange, status int, d time.Duration) {
	if err := i.recorder.RecordHTTPRequest(ex.method, ex.route, status, d); err != nil {
		i.logger.Warn(ex.ctx, "xtrace: record http metrics failed", xlog.Err(err))
	}
}

// route 按优先级解析路由模板：框架模板、WithRouteFunc、ServeMux Pattern、归一化路径
func (i *Interceptor) route(r *http.Request, template string) string {
	if template != "" {
		return template
	}
	if i.routeFunc != nil {
		if route := i.routeFunc(r); route != "" {
			return route
		}
	}
	if r.Pattern != "" {
		// ServeMux 模式可能带方法前缀："GET /books/{id}"
		if _, path, ok := strings.Cut(r.Pattern, " "); ok {
			return path
		}
		return r.Pattern
	}
	return i.routes.Normalize(r.URL.Path)
}

func (i *Interceptor) skip(r *http.Request) bool {
	_, ok := i.skipPaths[r.URL.Path]
	return ok
}

// =============================================================================
// 出站传播
// =============================================================================

// InjectHeaders 把 ctx 中的链路上下文与 request id 写入出站请求头。
func InjectHeaders(ctx context.Context, h http.Header) {
	InjectHeadersWith(ctx, h, propagation.TraceContext{})
}

// InjectHeadersWith 使用指定传播器写入出站请求头。
func InjectHeadersWith(ctx context.Context, h http.Header, p propagation.TextMapPropagator) {
	if ctx == nil || h == nil || p == nil {
		return
	}
	p.Inject(ctx, propagation.HeaderCarrier(h))
	if id := xctx.RequestID(ctx); id != "" {
		h.Set(xctx.HeaderRequestID, id)
	}
}
