// Package xctx 提供请求级上下文字段的存取。
//
// # 核心功能
//
// 追踪信息（Trace）：
//   - trace_id   : 从当前 OpenTelemetry span 读取（W3C 规范，32 位十六进制）
//   - span_id    : 从当前 OpenTelemetry span 读取（16 位十六进制）
//   - request_id : 请求标识，由入站中间件写入或自动生成
//
// trace_id/span_id 不单独存储在 context 中，而是以 span 为唯一事实来源，
// 保证日志、指标与追踪使用同一组标识。没有活跃 span 时返回空字符串。
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：从 context 读取值，缺失时返回零值
//	EnsureXxx(ctx)         - 确保：缺失时生成新值并写入
//
// # 日志集成
//
// [AppendTraceAttrs] 把存在的追踪字段追加为 slog.Attr，供 xlog.EnrichHandler 使用；
// 缺失字段不输出（不是空字符串）。
package xctx
