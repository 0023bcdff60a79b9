package xlog

import "errors"

var (
	// ErrNilHandler base handler 为 nil
	ErrNilHandler = errors.New("xlog: base handler is nil")

	// ErrNilExporter 远端 exporter 为 nil
	ErrNilExporter = errors.New("xlog: remote exporter is nil")

	// ErrEmptyEndpoint 远端日志 endpoint 为空
	ErrEmptyEndpoint = errors.New("xlog: remote endpoint is empty")

	// ErrRemoteClosed 远端 sink 已关闭
	ErrRemoteClosed = errors.New("xlog: remote sink is closed")
)
