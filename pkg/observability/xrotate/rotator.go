package xrotate

import (
	"errors"
	"io"
)

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器
//
// 所有实现都必须是并发安全的。
type Rotator interface {
	// Write 写入日志数据，达到大小阈值时自动轮转
	Write(p []byte) (n int, err error)

	// Close 关闭轮转器，重复调用返回 [ErrClosed]
	Close() error

	// Rotate 手动触发轮转
	Rotate() error
}

var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxSize MaxSizeMB 超出 1~10240
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 超出 0~1024
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 超出 0~3650
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")

	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")
)
