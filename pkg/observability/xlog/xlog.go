// xlog.go 定义核心接口：Logger、Leveler、LoggerWithLevel
//
// 设计理念：
//   - 强制 context 传递，日志自动关联调用时刻的活跃 span
//   - 动态级别控制，支持运行时调整
//   - Handler 装饰链：Enrich → Fanout → {Console, Remote}
//   - 生命周期管理，Build() 返回 cleanup 函数
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
//
// 所有方法都需要 context.Context 参数：trace_id/span_id 取自 ctx 中的活跃 span。
// 可选的上下文标签通过 [Context] 属性传入。
type Logger interface {
	// Debug 记录 Debug 级别日志
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)

	// Verbose 记录 Verbose 级别日志（介于 Debug 与 Info 之间）
	Verbose(ctx context.Context, msg string, attrs ...slog.Attr)

	// Info 记录 Info 级别日志
	Info(ctx context.Context, msg string, attrs ...slog.Attr)

	// Warn 记录 Warn 级别日志
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)

	// Error 记录 Error 级别日志
	//
	// 已有堆栈字符串时通过 [StackTrace] 属性传入，与消息体分开记录。
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 记录带当前 goroutine 调用栈的错误日志
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger
	//
	// 派生 logger 共享父级的 LevelVar，动态级别变更会同步生效。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger
	WithGroup(name string) Logger
}

// Leveler 级别控制接口
type Leveler interface {
	// SetLevel 动态设置日志级别
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level

	// Enabled 检查指定级别是否启用
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合接口：Logger + Leveler
//
// Build() 返回此接口，避免业务代码频繁类型断言。
type LoggerWithLevel interface {
	Logger
	Leveler
}
