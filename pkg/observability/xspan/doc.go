// Package xspan 为业务操作提供跨度包装：一次调用对应一个 span、
// 一组日志与一组 OTel 指标。
//
// # 使用方式
//
//	tracer, err := xspan.NewTracer(logger)
//	list := xspan.Wrap(tracer, "BooksService", "list", svc.list)
//	books, err := list(ctx, filter)
//
// 无入参的操作使用 [Call] 或 [Do]。
//
// # 跨度语义
//
//   - 跨度名默认为 operation，组件名与操作名分别写入属性 component.name、operation.name
//   - 入参通过 [CaptureArgs] 记录：基础类型记为 arg.N，复合类型只取 id/name/title
//   - 成功置 Ok；失败 RecordError 并置 Error，原错误原样返回
//   - panic 时 span 置 Error、记录堆栈日志，然后重新抛出
//   - 父子关系只由 context.Context 决定，不依赖任何共享可变状态
//
// # 指标
//
// 每次调用记录 xscaffold.operation.total 与 xscaffold.operation.duration（秒），
// 维度为 component、operation、status。MeterProvider 默认取全局，
// 由 xmetrics.Registry.MeterProvider 提供时会出现在 /metrics 上。
//
// 需要手动控制起止的场景使用底层 [Observer] / [Span] API。
package xspan
