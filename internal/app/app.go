// Package app 组装服务：日志、指标、追踪管线、拦截器与业务模块。
//
// 组装顺序固定：日志 → 指标注册表 → 追踪管线 → tracer 与拦截器 → 业务模块 → 路由。
// tracer 必须在追踪管线初始化之后创建。
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/omeyang/xscaffold/internal/books"
	"github.com/omeyang/xscaffold/internal/config"
	"github.com/omeyang/xscaffold/internal/system"
	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xmetrics"
	"github.com/omeyang/xscaffold/pkg/observability/xotel"
	"github.com/omeyang/xscaffold/pkg/observability/xrotate"
	"github.com/omeyang/xscaffold/pkg/observability/xspan"
	"github.com/omeyang/xscaffold/pkg/observability/xtrace"
)

// 日志文件轮转参数
const (
	logMaxSizeMB   = 100
	logMaxBackups  = 5
	logMaxAgeDays  = 7
	logCompression = true
)

// Option 配置 App。
type Option func(*options)

type options struct {
	logOutput io.Writer
	otelOpts  []xotel.Option
}

// WithLogOutput 替换控制台日志输出，默认 stdout。
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithTracingOptions 透传追踪管线选项（如 exporter 工厂）。
func WithTracingOptions(opts ...xotel.Option) Option {
	return func(o *options) {
		o.otelOpts = append(o.otelOpts, opts...)
	}
}

// App 组装完成的服务。
type App struct {
	cfg        config.Config
	logger     xlog.LoggerWithLevel
	logCleanup func() error
	registry   *xmetrics.Registry
	meter      *sdkmetric.MeterProvider
	tracing    *xotel.Manager
	engine     *gin.Engine
}

// New 按 cfg 组装服务。失败时已创建的资源会被释放。
func New(ctx context.Context, cfg config.Config, opts ...Option) (_ *App, err error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx)) //nolint:errcheck // 返回组装错误
		}
	}()

	if err = a.buildLogger(o); err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		a.logger.Warn(ctx, w, xlog.Context("Config"))
	}

	if err = a.buildMetrics(); err != nil {
		return nil, err
	}

	a.tracing, err = xotel.New(cfg.OTel(), a.logger, o.otelOpts...)
	if err != nil {
		return nil, err
	}
	if err = a.tracing.Initialize(ctx); err != nil {
		return nil, err
	}

	if err = a.buildRouter(); err != nil {
		return nil, err
	}

	a.logger.Info(ctx, "Application initialized",
		xlog.Context("App"),
		slog.String("tracing_state", a.tracing.State().String()))
	return a, nil
}

func (a *App) buildLogger(o *options) error {
	lc := a.cfg.Logging
	b := xlog.New().
		SetOutput(o.logOutput).
		SetLevelString(lc.Level).
		SetFormat(lc.Format).
		SetService(a.cfg.Service.Name, a.cfg.Service.Environment).
		SetEnrich(a.cfg.Tracing.Instrumentations.Logger)
	if lc.File != "" {
		b.SetRotation(lc.File,
			xrotate.WithMaxSize(logMaxSizeMB),
			xrotate.WithMaxBackups(logMaxBackups),
			xrotate.WithMaxAge(logMaxAgeDays),
			xrotate.WithCompress(logCompression))
	}
	if lc.Remote.Enabled {
		b.SetRemoteEndpoint(lc.Remote.Endpoint, lc.Remote.Headers)
	}

	logger, cleanup, err := b.Build()
	if err != nil {
		return err
	}
	a.logger, a.logCleanup = logger, cleanup
	return nil
}

func (a *App) buildMetrics() error {
	regOpts := []xmetrics.Option{
		xmetrics.WithDefaultLabels(map[string]string{"service": a.cfg.Service.Name}),
	}
	if a.cfg.Metrics.Enabled {
		regOpts = append(regOpts, xmetrics.WithProcessMetrics(a.cfg.Metrics.DefaultPrefix))
	}
	reg, err := xmetrics.NewRegistry(regOpts...)
	if err != nil {
		return err
	}
	if err := xmetrics.RegisterAppInfo(reg, a.cfg.Service.Version, a.cfg.Service.Environment); err != nil {
		return err
	}
	meter, err := reg.MeterProvider()
	if err != nil {
		return err
	}
	a.registry, a.meter = reg, meter
	return nil
}

func (a *App) buildRouter() error {
	tp := a.tracing.TracerProvider()
	instr := a.tracing.Instrumentations()

	tracer, err := xspan.NewTracer(a.logger,
		xspan.WithTracerProvider(tp),
		xspan.WithMeterProvider(a.meter))
	if err != nil {
		return err
	}

	httpMetrics, err := xmetrics.NewHTTPMetrics(a.registry)
	if err != nil {
		return err
	}
	var requestTP trace.TracerProvider = noop.NewTracerProvider()
	if instr.Has(xotel.InstrumentHTTP) {
		requestTP = tp
	}
	icOpts := []xtrace.Option{xtrace.WithTracerProvider(requestTP)}
	if a.cfg.Metrics.Enabled {
		icOpts = append(icOpts, xtrace.WithSkipPaths(a.cfg.Metrics.Path))
	}
	ic, err := xtrace.NewInterceptor(a.logger, httpMetrics, icOpts...)
	if err != nil {
		return err
	}

	bookSvc, err := books.NewService(tracer, a.registry)
	if err != nil {
		return err
	}
	bookCtrl, err := books.NewController(bookSvc, a.registry)
	if err != nil {
		return err
	}
	sysSvc, err := system.NewService(tracer, a.cfg.Service.Environment, a.cfg.Service.Version)
	if err != nil {
		return err
	}
	sysCtrl, err := system.NewController(sysSvc, a.registry)
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), ic.Gin())
	if a.cfg.Metrics.Enabled {
		engine.GET(a.cfg.Metrics.Path, gin.WrapH(a.registry.Handler(a.logger)))
	}

	api := engine.Group("")
	if instr.Has(xotel.InstrumentFramework) {
		mi, err := xtrace.NewMethodInterceptor(a.logger, xtrace.WithTracerProvider(tp))
		if err != nil {
			return err
		}
		api.Use(mi.Gin())
	}
	bookCtrl.Register(api)
	sysCtrl.Register(api)

	a.engine = engine
	return nil
}

// Handler 返回 HTTP 处理器。
func (a *App) Handler() http.Handler {
	return a.engine
}

// Logger 返回应用日志实例。
func (a *App) Logger() xlog.LoggerWithLevel {
	return a.logger
}

// Registry 返回指标注册表。
func (a *App) Registry() *xmetrics.Registry {
	return a.registry
}

// Tracing 返回追踪管线管理器。
func (a *App) Tracing() *xotel.Manager {
	return a.tracing
}

// Close 依次关闭追踪管线、MeterProvider 与日志。
//
// 各步骤的错误只记录日志，返回合并后的错误。
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			errs = append(errs, err)
			a.logger.Error(ctx, "Error shutting down tracing", xlog.Err(err))
		}
	}
	if a.meter != nil {
		if err := a.meter.Shutdown(ctx); err != nil {
			errs = append(errs, err)
			a.logger.Error(ctx, "Error shutting down meter provider", xlog.Err(err))
		}
		a.meter = nil
	}
	if a.logCleanup != nil {
		if err := a.logCleanup(); err != nil {
			errs = append(errs, err)
		}
		a.logCleanup = nil
	}
	return errors.Join(errs...)
}
