package xtrace

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/omeyang/xscaffold/xtrace"

// Option 拦截器选项，请求拦截器与方法拦截器共用。
type Option func(*config)

type config struct {
	tracerProvider trace.TracerProvider
	propagator     propagation.TextMapPropagator
	routeFunc      func(*http.Request) string
	routeCacheSize int
	skipPaths      map[string]struct{}
}

// WithTracerProvider 设置 TracerProvider，默认使用全局 provider。
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithPropagator 设置上下文传播器，默认 W3C TraceContext。
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *config) {
		if p != nil {
			c.propagator = p
		}
	}
}

// WithRouteFunc 设置路由模板解析函数，返回空字符串时回退到默认解析。
//
// 用于 gin、ServeMux 以外的路由框架。
func WithRouteFunc(fn func(*http.Request) string) Option {
	return func(c *config) { c.routeFunc = fn }
}

// WithRouteCacheSize 设置路由归一化缓存容量。
func WithRouteCacheSize(n int) Option {
	return func(c *config) { c.routeCacheSize = n }
}

// WithSkipPaths 设置不追踪的路径（精确匹配），如 /metrics、/healthz。
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.skipPaths[p] = struct{}{}
		}
	}
}

func applyOptions(opts []Option) *config {
	c := &config{
		tracerProvider: otel.GetTracerProvider(),
		propagator:     propagation.TraceContext{},
		routeCacheSize: DefaultRouteCacheSize,
		skipPaths:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}
