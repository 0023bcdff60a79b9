// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，可选 OTLP 远端 sink
//   - xmetrics: Prometheus 指标注册表与 HTTP 请求指标
//   - xspan: 服务方法包装，span、日志与操作指标
//   - xtrace: HTTP 请求级与处理器级拦截器
//   - xotel: 追踪管线生命周期（采样器、exporter、全局 provider）
//   - xsampling: 采样策略
//   - xrotate: 日志文件轮转
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 自动从 context 中提取追踪信息注入日志
//   - 支持动态级别控制和采样策略
package observability
