package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 全局 Logger
//
// 供没有持有 logger 的库代码使用（如 xrun 的默认日志）。
// 服务端组件通过构造函数显式接收 Logger。
// =============================================================================

var (
	globalLogger atomic.Pointer[LoggerWithLevel]
	globalMu     sync.Mutex
	globalOnce   sync.Once
)

// newBuilder 默认 logger 使用的构建器工厂，测试可替换
var newBuilder = New

func defaultLogger() LoggerWithLevel {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalOnce.Do(func() {
		logger, _, err := newBuilder().Build()
		if err != nil {
			// 默认参数不应失败；失败时降级为最小可用 logger，构造不 panic
			fmt.Fprintf(os.Stderr, "xlog: failed to build default logger: %v, using fallback\n", err)
			var fallback LoggerWithLevel = &xlogger{
				handler:        slog.NewTextHandler(os.Stderr, nil),
				levelVar:       new(slog.LevelVar),
				errorCount:     new(atomic.Uint64),
				inErrorHandler: new(atomic.Bool),
			}
			globalLogger.Store(&fallback)
			return
		}
		globalLogger.Store(&logger)
	})
	return *globalLogger.Load()
}

// Default 返回全局默认 Logger，首次调用时惰性初始化
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	return defaultLogger()
}

// SetDefault 替换全局默认 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// ResetDefault 重置为未初始化状态（仅用于测试）
func ResetDefault() {
	globalMu.Lock()
	globalLogger.Store(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
}

// globalLog 全局函数比实例方法多一层调用，需要额外跳过 1 帧
func globalLog(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.logWithSkip(ctx, level, msg, attrs, 1)
		return
	}
	switch Level(level) {
	case LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case LevelVerbose:
		l.Verbose(ctx, msg, attrs...)
	case LevelInfo:
		l.Info(ctx, msg, attrs...)
	case LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

// Debug 使用全局 Logger 记录 Debug 日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelDebug, msg, attrs)
}

// Verbose 使用全局 Logger 记录 Verbose 日志
func Verbose(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.Level(LevelVerbose), msg, attrs)
}

// Info 使用全局 Logger 记录 Info 日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelInfo, msg, attrs)
}

// Warn 使用全局 Logger 记录 Warn 日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelWarn, msg, attrs)
}

// Error 使用全局 Logger 记录 Error 日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelError, msg, attrs)
}

// Stack 使用全局 Logger 记录带堆栈的错误日志
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.stackWithSkip(ctx, msg, attrs, 1)
		return
	}
	l.Stack(ctx, msg, attrs...)
}
