package xotel

import "errors"

var (
	// ErrNilLogger 生命周期管理器必须持有 logger。
	ErrNilLogger = errors.New("xotel: logger is required")
	// ErrUnknownProtocol 导出协议不是 http、grpc 或 stdout。
	ErrUnknownProtocol = errors.New("xotel: unknown exporter protocol")
	// ErrNilExporter 导出器工厂返回了 nil。
	ErrNilExporter = errors.New("xotel: exporter factory returned nil exporter")
)
