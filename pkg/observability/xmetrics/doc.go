// Package xmetrics 提供基于 Prometheus 的指标注册表。
//
// # 设计理念
//
// Registry 是进程内唯一的指标存储：业务按名称创建 Counter/Gauge/Histogram/Summary，
// 拿到强类型的句柄后按描述符的标签顺序传入标签值记录样本。
// 名称在注册表内全局唯一（不区分类型），重复注册返回 [ErrDuplicateRegistration]，
// 已有的描述符和样本不受影响。
//
// # 使用示例
//
//	reg, _ := xmetrics.NewRegistry(
//		xmetrics.WithDefaultLabels(map[string]string{"service": "books-api"}),
//		xmetrics.WithProcessMetrics("app_"),
//	)
//	created, _ := reg.CreateCounter("books_created_total", "Total books created")
//	_ = created.Inc()
//
//	http.Handle("/metrics", reg.Handler(logger))
//
// # 与 OpenTelemetry 的关系
//
// [Registry.MeterProvider] 返回一个 OTel SDK MeterProvider，
// 其 Prometheus exporter 注册在同一注册表上，
// 因此 xspan 记录的 xscaffold.operation.* 指标也会出现在 /metrics 中。
//
// # 标签基数
//
// 标签值应来自有限集合。HTTP 指标使用归一化后的路由模板而非原始路径，
// 见 xtrace.NormalizePath。
package xmetrics
