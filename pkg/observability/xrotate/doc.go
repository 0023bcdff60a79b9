// Package xrotate 提供日志文件轮转，作为 xlog 控制台之外的本地文件输出。
//
// # 使用
//
//	r, err := xrotate.NewLumberjack("/var/log/xscaffold/app.log",
//		xrotate.WithMaxSize(100),
//		xrotate.WithMaxBackups(5),
//	)
//
// 通常不直接使用，而是通过 xlog.Builder.SetRotation 接入。
//
// # 约定
//
//   - [Rotator] 是 io.WriteCloser 的超集，并发安全
//   - Close 之后的 Write/Rotate 返回 [ErrClosed]
//   - MaxBackups 与 MaxAgeDays 不能同时为 0，避免备份无限堆积
package xrotate
