package xlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xscaffold/pkg/context/xctx"
)

// =============================================================================
// 远端日志记录
// =============================================================================

// 远端记录的固定属性 key
const (
	AttrServiceName        = "service.name"
	AttrServiceEnvironment = "service.environment"
	AttrTraceID            = "traceId"
	AttrSpanID             = "spanId"
)

// Record 交给远端 Exporter 的日志记录
//
// Attributes 总是包含 service.name 与 service.environment，
// 记录产生时存在活跃 span 时还包含 traceId 与 spanId。
type Record struct {
	Timestamp      time.Time
	SeverityNumber int
	SeverityText   string
	Body           string
	Attributes     map[string]string
}

// Exporter 远端日志导出器
//
// Export 返回后不得继续持有 records。
type Exporter interface {
	Export(ctx context.Context, records []Record) error
	Shutdown(ctx context.Context) error
}

// RemoteStats 远端 sink 计数
type RemoteStats struct {
	Exported uint64 // 成功导出的记录数
	Dropped  uint64 // 缓冲区满或关闭后丢弃的记录数
	Failed   uint64 // 导出失败丢弃的记录数
}

// =============================================================================
// 配置
// =============================================================================

const (
	defaultRemoteBufferSize      = 2048
	defaultRemoteBatchSize       = 128
	defaultRemoteFlushInterval   = time.Second
	defaultRemoteExportTimeout   = 10 * time.Second
	defaultRemoteRetryAttempts   = 3
	defaultRemoteRetryDelay      = 200 * time.Millisecond
	defaultRemoteBreakerFailures = 5
	defaultRemoteBreakerTimeout  = 30 * time.Second
)

type remoteConfig struct {
	bufferSize      int
	batchSize       int
	flushInterval   time.Duration
	exportTimeout   time.Duration
	retryAttempts   uint
	retryDelay      time.Duration
	breakerFailures uint32
	breakerTimeout  time.Duration
	level           slog.Leveler
	service         string
	environment     string
}

// RemoteOption 远端 sink 配置选项
type RemoteOption func(*remoteConfig)

// WithRemoteBuffer 设置缓冲区容量，满时新记录被丢弃并计数
func WithRemoteBuffer(n int) RemoteOption {
	return func(c *remoteConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithRemoteBatch 设置单批最大记录数与定时刷新间隔
func WithRemoteBatch(size int, interval time.Duration) RemoteOption {
	return func(c *remoteConfig) {
		if size > 0 {
			c.batchSize = size
		}
		if interval > 0 {
			c.flushInterval = interval
		}
	}
}

// WithRemoteExportTimeout 设置单批导出（含重试）的超时
func WithRemoteExportTimeout(d time.Duration) RemoteOption {
	return func(c *remoteConfig) {
		if d > 0 {
			c.exportTimeout = d
		}
	}
}

// WithRemoteRetry 设置单批导出的重试次数与初始退避
func WithRemoteRetry(attempts uint, delay time.Duration) RemoteOption {
	return func(c *remoteConfig) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithRemoteBreaker 设置熔断：连续失败 failures 批后打开，timeout 后半开探测
func WithRemoteBreaker(failures uint32, timeout time.Duration) RemoteOption {
	return func(c *remoteConfig) {
		if failures > 0 {
			c.breakerFailures = failures
		}
		if timeout > 0 {
			c.breakerTimeout = timeout
		}
	}
}

// WithRemoteLevel 设置远端 sink 的最低级别，默认 Info
func WithRemoteLevel(l slog.Leveler) RemoteOption {
	return func(c *remoteConfig) {
		if l != nil {
			c.level = l
		}
	}
}

// WithRemoteService 设置写入 service.name/service.environment 的值
func WithRemoteService(name, environment string) RemoteOption {
	return func(c *remoteConfig) {
		c.service = name
		c.environment = environment
	}
}

// =============================================================================
// remoteSink：后台批量导出
// =============================================================================

// remoteSink 被同一 RemoteHandler 派生出的所有 handler 共享
type remoteSink struct {
	cfg      remoteConfig
	exporter Exporter
	fallback slog.Handler
	breaker  *gobreaker.CircuitBreaker[struct{}]

	queue   chan Record
	flushCh chan chan struct{}
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool

	pendingDrops atomic.Uint64
	dropped      atomic.Uint64
	failed       atomic.Uint64
	exported     atomic.Uint64
}

func newRemoteSink(exporter Exporter, fallback slog.Handler, cfg remoteConfig) *remoteSink {
	s := &remoteSink{
		cfg:      cfg,
		exporter: exporter,
		fallback: fallback,
		queue:    make(chan Record, cfg.bufferSize),
		flushCh:  make(chan chan struct{}),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "xlog-remote",
		MaxRequests: 1,
		Timeout:     cfg.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.breakerFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			s.report("xlog: remote sink circuit breaker state changed",
				slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	go s.run()
	return s
}

// enqueue 非阻塞入队，缓冲区满时丢弃
func (s *remoteSink) enqueue(rec Record) {
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- rec:
	default:
		s.dropped.Add(1)
		s.pendingDrops.Add(1)
	}
}

func (s *remoteSink) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.cfg.flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, s.cfg.batchSize)
	for {
		select {
		case rec := <-s.queue:
			batch = append(batch, rec)
			if len(batch) >= s.cfg.batchSize {
				batch = s.export(batch)
			}
		case <-ticker.C:
			batch = s.export(batch)
		case ack := <-s.flushCh:
			batch = s.export(s.drain(batch))
			close(ack)
		case <-s.done:
			s.export(s.drain(batch))
			return
		}
	}
}

// drain 取空队列中已有的记录，满批即导出
func (s *remoteSink) drain(batch []Record) []Record {
	for {
		select {
		case rec := <-s.queue:
			batch = append(batch, rec)
			if len(batch) >= s.cfg.batchSize {
				batch = s.export(batch)
			}
		default:
			return batch
		}
	}
}

// export 导出一批记录，返回新的空 batch
//
// 导出受重试与熔断保护；失败只在控制台报告，不向日志调用方传播。
func (s *remoteSink) export(batch []Record) []Record {
	if n := s.pendingDrops.Swap(0); n > 0 {
		s.report("xlog: remote sink buffer full, records dropped", slog.Uint64("count", n))
	}
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.exportTimeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, retry.New(
			retry.Context(ctx),
			retry.Attempts(s.cfg.retryAttempts),
			retry.Delay(s.cfg.retryDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		).Do(func() error {
			return s.exporter.Export(ctx, batch)
		})
	})
	if err != nil {
		s.failed.Add(uint64(len(batch)))
		s.report("xlog: remote export failed", Err(err), slog.Int("records", len(batch)))
	} else {
		s.exported.Add(uint64(len(batch)))
	}
	return make([]Record, 0, s.cfg.batchSize)
}

// report 通过控制台 handler 报告 sink 自身的问题
func (s *remoteSink) report(msg string, attrs ...slog.Attr) {
	if s.fallback == nil {
		return
	}
	ctx := context.Background()
	if !s.fallback.Enabled(ctx, slog.LevelWarn) {
		return
	}
	r := slog.NewRecord(time.Now(), slog.LevelWarn, msg, 0)
	r.AddAttrs(attrs...)
	_ = s.fallback.Handle(ctx, r) //nolint:errcheck // 控制台失败无处可报
}

func (s *remoteSink) flush(ctx context.Context) error {
	if s.closed.Load() {
		return ErrRemoteClosed
	}
	ack := make(chan struct{})
	select {
	case s.flushCh <- ack:
	case <-s.stopped:
		return ErrRemoteClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *remoteSink) close(ctx context.Context) error {
	err := ErrRemoteClosed
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		select {
		case <-s.stopped:
			err = nil
		case <-ctx.Done():
			err = fmt.Errorf("xlog: wait remote sink: %w", ctx.Err())
		}
		if sErr := s.exporter.Shutdown(ctx); sErr != nil {
			err = errors.Join(err, fmt.Errorf("xlog: shutdown remote exporter: %w", sErr))
		}
	})
	return err
}

// =============================================================================
// RemoteHandler
// =============================================================================

type remoteAttr struct {
	key   string
	value string
}

// RemoteHandler 异步远端日志 handler
//
// Handle 只做格式转换与非阻塞入队，导出在后台 goroutine 中进行。
// 通过 Close 排空缓冲并关闭 exporter。
type RemoteHandler struct {
	sink   *remoteSink
	attrs  []remoteAttr
	prefix string
}

var _ slog.Handler = (*RemoteHandler)(nil)

// NewRemoteHandler 创建远端 handler 并启动后台导出
//
// fallback 用于报告导出失败与丢弃，通常是控制台 handler，可以为 nil。
func NewRemoteHandler(exporter Exporter, fallback slog.Handler, opts ...RemoteOption) (*RemoteHandler, error) {
	if exporter == nil {
		return nil, ErrNilExporter
	}
	cfg := remoteConfig{
		bufferSize:      defaultRemoteBufferSize,
		batchSize:       defaultRemoteBatchSize,
		flushInterval:   defaultRemoteFlushInterval,
		exportTimeout:   defaultRemoteExportTimeout,
		retryAttempts:   defaultRemoteRetryAttempts,
		retryDelay:      defaultRemoteRetryDelay,
		breakerFailures: defaultRemoteBreakerFailures,
		breakerTimeout:  defaultRemoteBreakerTimeout,
		level:           slog.LevelInfo,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &RemoteHandler{sink: newRemoteSink(exporter, fallback, cfg)}, nil
}

// Enabled 按远端最低级别判断
func (h *RemoteHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.sink.cfg.level.Level()
}

// Handle 转换为 Record 并入队，不阻塞、不返回导出错误
func (h *RemoteHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+r.NumAttrs()+4)
	for _, a := range h.attrs {
		attrs[a.key] = a.value
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && (a.Key == KeyTraceID || a.Key == KeySpanID) {
			return true
		}
		flattenAttr(attrs, h.prefix, a)
		return true
	})

	attrs[AttrServiceName] = h.sink.cfg.service
	attrs[AttrServiceEnvironment] = h.sink.cfg.environment
	if id := xctx.TraceID(ctx); id != "" {
		attrs[AttrTraceID] = id
	}
	if id := xctx.SpanID(ctx); id != "" {
		attrs[AttrSpanID] = id
	}

	level := Level(r.Level)
	h.sink.enqueue(Record{
		Timestamp:      r.Time,
		SeverityNumber: level.Severity(),
		SeverityText:   level.String(),
		Body:           r.Message,
		Attributes:     attrs,
	})
	return nil
}

// WithAttrs 预先展开属性
//
// 顶层 service/environment 由 service.name/service.environment 表示，不重复记录。
func (h *RemoteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if h.prefix == "" && (a.Key == KeyService || a.Key == KeyEnvironment) {
			continue
		}
		flattenAttr(m, h.prefix, a)
	}
	merged := make([]remoteAttr, 0, len(h.attrs)+len(m))
	merged = append(merged, h.attrs...)
	for k, v := range m {
		merged = append(merged, remoteAttr{key: k, value: v})
	}
	return &RemoteHandler{sink: h.sink, attrs: merged, prefix: h.prefix}
}

// WithGroup 后续属性 key 以 "name." 为前缀
func (h *RemoteHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &RemoteHandler{sink: h.sink, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// Flush 等待当前已入队的记录导出完成
func (h *RemoteHandler) Flush(ctx context.Context) error {
	return h.sink.flush(ctx)
}

// Close 排空缓冲、停止后台 goroutine 并关闭 exporter
//
// 重复调用返回 ErrRemoteClosed。
func (h *RemoteHandler) Close(ctx context.Context) error {
	return h.sink.close(ctx)
}

// Stats 返回远端 sink 计数
func (h *RemoteHandler) Stats() RemoteStats {
	return RemoteStats{
		Exported: h.sink.exported.Load(),
		Dropped:  h.sink.dropped.Load(),
		Failed:   h.sink.failed.Load(),
	}
}

// flattenAttr 把属性展开为 "group.key" -> 字符串
func flattenAttr(dst map[string]string, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			flattenAttr(dst, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	switch v.Kind() {
	case slog.KindTime:
		dst[prefix+a.Key] = v.Time().Format(time.RFC3339Nano)
	default:
		dst[prefix+a.Key] = v.String()
	}
}
