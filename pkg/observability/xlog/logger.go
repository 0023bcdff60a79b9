package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// 编译时接口检查
var (
	_ Logger          = (*xlogger)(nil)
	_ Leveler         = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

// stackPool 堆栈缓冲区池
var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

const (
	initialStackSize = 4096
	maxStackSize     = 64 * 1024
)

// xlogger Logger 接口的实现
type xlogger struct {
	handler        slog.Handler
	levelVar       *slog.LevelVar
	onError        func(error)    // 内部错误回调
	errorCount     *atomic.Uint64 // 内部错误计数，派生 logger 共享
	addSource      bool
	inErrorHandler *atomic.Bool // onError 递归保护，派生 logger 共享
}

// logWithSkip 通用日志方法
// extraSkip: 额外跳过的栈帧数（全局函数等间接调用场景）
//
//go:noinline
func (l *xlogger) logWithSkip(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extraSkip int) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// Callers(0) → logWithSkip(1) → 直接调用方(2) → 业务代码(3+extraSkip)
		runtime.Callers(3+extraSkip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)

	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l.logWithSkip(ctx, level, msg, attrs, 1)
}

// handleError 处理 Handler.Handle 失败
//
// 日志失败不扩散到调用方：计入 errorCount，并 best-effort 通知 onError。
// CAS 保护防止 onError 内部再次记录日志导致递归。
func (l *xlogger) handleError(err error) {
	if l.errorCount != nil {
		l.errorCount.Add(1)
	}
	if l.onError != nil && l.inErrorHandler != nil {
		if l.inErrorHandler.CompareAndSwap(false, true) {
			defer l.inErrorHandler.Store(false)
			l.safeOnError(err)
		}
	}
}

func (l *xlogger) safeOnError(err error) {
	defer func() {
		if r := recover(); r != nil {
			if l.errorCount != nil {
				l.errorCount.Add(1)
			}
		}
	}()
	l.onError(err)
}

// Debug 记录 Debug 级别日志
func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

// Verbose 记录 Verbose 级别日志
func (l *xlogger) Verbose(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.Level(LevelVerbose), msg, attrs)
}

// Info 记录 Info 级别日志
func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

// Warn 记录 Warn 级别日志
func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

// Error 记录 Error 级别日志
func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

// Stack 记录带完整堆栈的错误日志
//
//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.stackWithSkip(ctx, msg, attrs, 0)
}

//go:noinline
func (l *xlogger) stackWithSkip(ctx context.Context, msg string, attrs []slog.Attr, extraSkip int) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}

	r := slog.NewRecord(time.Now(), slog.LevelError, msg, l.callerPC(extraSkip))
	r.AddAttrs(attrs...)
	r.AddAttrs(slog.String(KeyStack, captureStack()))

	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

// callerPC 仅在启用 AddSource 时捕获调用者位置
//
// Callers(0) → callerPC(1) → stackWithSkip(2) → Stack(3) → 业务代码(4+extraSkip)
func (l *xlogger) callerPC(extraSkip int) uintptr {
	if !l.addSource {
		return 0
	}
	var pcs [1]uintptr
	runtime.Callers(4+extraSkip, pcs[:])
	return pcs[0]
}

// captureStack 获取当前 goroutine 的调用栈，缓冲区不足时翻倍扩展到 maxStackSize
func captureStack() string {
	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}
	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	// 必须在 Put 前拷贝为 string，未扩展时 buf 与 *bufp 共享底层数组
	s := string(buf[:n])
	stackPool.Put(bufp)
	return s
}

func (l *xlogger) derive(h slog.Handler) *xlogger {
	return &xlogger{
		handler:        h,
		levelVar:       l.levelVar,
		onError:        l.onError,
		errorCount:     l.errorCount,
		addSource:      l.addSource,
		inErrorHandler: l.inErrorHandler,
	}
}

// With 返回带额外属性的派生 Logger
func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return l.derive(l.handler.WithAttrs(attrs))
}

// WithGroup 返回带分组的派生 Logger
func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return l.derive(l.handler.WithGroup(name))
}

// SetLevel 动态设置日志级别
func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

// GetLevel 获取当前日志级别
func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

// Enabled 检查指定级别是否启用
func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.handler.Enabled(ctx, slog.Level(level))
}

// ErrorCount 返回 logger 自创建以来的内部写入错误次数
func ErrorCount(l Logger) uint64 {
	if xl, ok := l.(*xlogger); ok && xl.errorCount != nil {
		return xl.errorCount.Load()
	}
	return 0
}
