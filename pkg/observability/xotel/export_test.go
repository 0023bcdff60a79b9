package xotel

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace/noop"
)

// ResetForTest 关闭并清空进程级管线，恢复 noop 全局对象。
func ResetForTest() {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.handle != nil {
		_ = global.handle.provider.Shutdown(context.Background())
	}
	global.started = false
	global.handle = nil
	otel.SetTracerProvider(noop.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
}

// MarkStartedWithoutHandleForTest 模拟"已标记启动但没有实例"的状态。
func MarkStartedWithoutHandleForTest() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.started = true
	global.handle = nil
}

// SetStdoutWriterForTest 替换 stdout 协议的输出目标，返回恢复函数。
func SetStdoutWriterForTest(w io.Writer) func() {
	old := stdoutWriter
	stdoutWriter = w
	return func() { stdoutWriter = old }
}
