package xotel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// 资源属性
const (
	attrServiceName    = "service.name"
	attrServiceVersion = "service.version"
	attrEnvironment    = "deployment.environment.name"
)

// MsgReinitialize 已标记启动但找不到管线实例时输出的告警。
const MsgReinitialize = "Tracing SDK was marked as initialized but no instance found. Reinitializing."

// =============================================================================
// 进程级单例
// =============================================================================

// global 进程内唯一的追踪管线。started 与 handle 总在 mu 下一起读写。
//
// 设计决策: 启动失败时 started 保持为 true、handle 为空，
// 下一次 Initialize 会输出 [MsgReinitialize] 告警并重建管线。
var global struct {
	mu      sync.Mutex
	started bool
	handle  *Handle
}

// Handle 已启动管线的句柄，由所有者与复用者共享。
type Handle struct {
	provider *sdktrace.TracerProvider
	instr    Instrumentations
}

// TracerProvider 返回管线的 SDK Provider。
func (h *Handle) TracerProvider() *sdktrace.TracerProvider {
	return h.provider
}

// Instrumentations 返回管线启动时解析出的埋点能力。
func (h *Handle) Instrumentations() Instrumentations {
	return h.instr
}

// =============================================================================
// Manager
// =============================================================================

// Option 配置 Manager。
type Option func(*Manager)

// WithExporterFactory 替换导出器创建逻辑，默认 [NewExporter]。
func WithExporterFactory(f ExporterFactory) Option {
	return func(m *Manager) {
		if f != nil {
			m.factory = f
		}
	}
}

// WithSyncExport span 结束时同步导出，不经过批处理。只用于测试与调试。
func WithSyncExport() Option {
	return func(m *Manager) {
		m.syncExport = true
	}
}

// Manager 追踪管线生命周期管理器，方法可并发调用。
type Manager struct {
	cfg        Config
	logger     xlog.Logger
	factory    ExporterFactory
	syncExport bool

	mu     sync.Mutex
	state  State
	owner  bool
	handle *Handle
}

// New 创建 Manager，不做任何初始化。logger 为必填项。
func New(cfg Config, logger xlog.Logger, opts ...Option) (*Manager, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	m := &Manager{
		cfg:     cfg,
		logger:  logger,
		factory: NewExporter,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Initialize 启动或复用进程级追踪管线。
//
// 已启动或已禁用时直接返回 nil。
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateStarted || m.state == StateDisabled {
		return nil
	}
	if !m.cfg.Enabled {
		m.state = StateDisabled
		m.logger.Info(ctx, "Tracing is disabled")
		return nil
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.started {
		if global.handle != nil {
			m.handle = global.handle
			m.owner = false
			m.state = StateStarted
			m.logger.Debug(ctx, "Tracing SDK already initialized, reusing existing instance")
			return nil
		}
		m.logger.Warn(ctx, MsgReinitialize)
	}

	m.state = StateStarting
	global.started = true
	h, err := m.start(ctx)
	if err != nil {
		m.state = StateUninitialized
		return err
	}
	global.handle = h
	m.handle = h
	m.owner = true
	m.state = StateStarted

	m.logger.Info(ctx, "Tracing initialized",
		slog.String("service", m.cfg.ServiceName),
		slog.String("sampler", m.cfg.Sampler.Type),
		slog.String("exporter", m.cfg.Exporter.Protocol),
		slog.String("instrumentations", strings.Join(h.instr.Names(), ",")),
	)
	return nil
}

// start 构建并安装管线，调用方持有 global.mu。
func (m *Manager) start(ctx context.Context) (*Handle, error) {
	sampler := NewSampler(m.cfg.Sampler, m.logger)
	instr := ResolveInstrumentations(m.cfg.Instrumentations)

	exp, err := m.factory(ctx, m.cfg.Exporter)
	if err != nil {
		return nil, fmt.Errorf("xotel: create exporter: %w", err)
	}
	if exp == nil {
		return nil, ErrNilExporter
	}

	if err := settle(ctx, m.cfg.SettleDelay); err != nil {
		_ = exp.Shutdown(context.WithoutCancel(ctx))
		return nil, err
	}

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		m.logger.Warn(ctx, "Tracing pipeline already started by another component, replacing global provider")
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(m.resource()),
	}
	if m.syncExport {
		opts = append(opts, sdktrace.WithSyncer(exp))
	} else {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	if instr.Has(InstrumentHTTP) {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	return &Handle{provider: tp, instr: instr}, nil
}

func (m *Manager) resource() *resource.Resource {
	service := resource.NewSchemaless(
		attribute.String(attrServiceName, m.cfg.ServiceName),
		attribute.String(attrServiceVersion, m.cfg.ServiceVersion),
		attribute.String(attrEnvironment, m.cfg.Environment),
	)
	res, err := resource.Merge(resource.Default(), service)
	if err != nil {
		return service
	}
	return res
}

// settle 等待 d，ctx 取消时提前返回
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Shutdown 关闭管线。
//
// 非所有者只把自身标记为 Stopped；所有者 flush 并关闭 Provider，
// 恢复 noop 全局对象并清空单例。flush 与关闭失败只记录日志，总是返回 nil。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateStarted {
		return nil
	}
	if !m.owner {
		m.handle = nil
		m.state = StateStopped
		return nil
	}

	m.state = StateShuttingDown

	global.mu.Lock()
	defer global.mu.Unlock()

	tp := m.handle.provider
	if err := tp.ForceFlush(ctx); err != nil {
		m.logger.Error(ctx, "Error flushing spans", xlog.Err(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		m.logger.Error(ctx, "Error shutting down tracing", xlog.Err(err))
	}

	otel.SetTracerProvider(noop.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	if global.handle == m.handle {
		global.started = false
		global.handle = nil
	}

	m.handle = nil
	m.owner = false
	m.state = StateStopped
	m.logger.Info(ctx, "Tracing shut down successfully")
	return nil
}

// State 返回当前状态。
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Owner 报告该 Manager 是否负责关闭管线。
func (m *Manager) Owner() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

// Handle 返回管线句柄，未启动时为 nil。
func (m *Manager) Handle() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// TracerProvider 返回管线 Provider；未启动时返回全局 Provider。
func (m *Manager) TracerProvider() trace.TracerProvider {
	if h := m.Handle(); h != nil {
		return h.provider
	}
	return otel.GetTracerProvider()
}

// Instrumentations 返回已启用的埋点能力，未启动时为空集合。
func (m *Manager) Instrumentations() Instrumentations {
	if h := m.Handle(); h != nil {
		return h.instr
	}
	return 0
}
