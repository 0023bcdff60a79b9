// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转、远端 sink）
//   - 自动注入活跃 span 的 trace_id/span_id 与 request_id（EnrichHandler，默认启用）
//   - 服务名/环境固定属性（SetService）
//   - 控制台 + 异步远端 sink 扇出（FanoutHandler、RemoteHandler）
//   - 动态级别调整
//   - 全局 Logger 便利函数
//
// # 创建 Logger
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("info").
//		SetFormat("json").
//		SetService("xscaffold", "production").
//		SetRemoteEndpoint("http://collector:4318/v1/logs", nil).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// Builder 为一次性使用，first-error-wins。
//
// # 关联追踪
//
// 每次调用时从 ctx 读取活跃 span：存在时输出 trace_id、span_id；
// 不存在时两个字段都不输出（不是空字符串）。字段取值发生在日志调用时刻，与远端导出时机无关。
//
// # 远端 sink
//
// [RemoteHandler] 把记录转换为 [Record] 后非阻塞入队，后台 goroutine 按批量或间隔导出。
// 缓冲区满时丢弃并计数；导出失败经重试（retry-go）与熔断（gobreaker）后在控制台告警。
// 远端 sink 的任何失败都不会传播到日志调用方。默认 exporter 为 OTLP/HTTP（[NewOTLPExporter]）。
//
// # 日志级别
//
// LevelDebug(-4)、LevelVerbose(-2)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// 远端记录的严重级别编号：error=17、warn=13、info=9、verbose/debug=5。
//
// # 便捷属性
//
// [Err]、[Context]、[StackTrace]、[Duration]、[Component]、[Operation]、[StatusCode]、
// [Method]、[Path]、[Route]。
package xlog
