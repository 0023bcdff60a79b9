package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xscaffold/pkg/context/xctx"
)

// =============================================================================
// 常用属性 Key 常量
// =============================================================================

const (
	// KeyError 错误字段
	KeyError = "error"

	// KeyStack 堆栈字段，与消息体分开记录
	KeyStack = "stack"

	// KeyContext 日志上下文标签（调用方组件名等）
	KeyContext = "context"

	// KeyDuration 耗时字段
	KeyDuration = "duration"

	// KeyService 服务名固定属性
	KeyService = "service"

	// KeyEnvironment 运行环境固定属性
	KeyEnvironment = "environment"

	// KeyRequestID 请求 ID，引用 xctx 保证跨包一致
	KeyRequestID = xctx.KeyRequestID

	// KeyTraceID trace ID
	KeyTraceID = xctx.KeyTraceID

	// KeySpanID span ID
	KeySpanID = xctx.KeySpanID

	KeyMethod     = "method"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyStatusCode = "status_code"
	KeyComponent  = "component"
	KeyOperation  = "operation"
)

// =============================================================================
// 便捷属性构造函数
// =============================================================================

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）
//
//	if err != nil {
//	    logger.Error(ctx, "operation failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Context 创建上下文标签属性
//
//	logger.Info(ctx, "book created", xlog.Context("BooksService"))
func Context(label string) slog.Attr {
	if label == "" {
		return slog.Attr{}
	}
	return slog.String(KeyContext, label)
}

// StackTrace 创建堆栈属性，s 为空时返回空属性
func StackTrace(s string) slog.Attr {
	if s == "" {
		return slog.Attr{}
	}
	return slog.String(KeyStack, s)
}

// Duration 创建耗时属性，以秒为单位的浮点数
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDuration, d.Seconds())
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// StatusCode 创建 HTTP 状态码属性
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// Method 创建 HTTP 方法属性
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path 创建请求路径属性
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Route 创建归一化路由属性
func Route(r string) slog.Attr {
	return slog.String(KeyRoute, r)
}
