// Package xtrace 提供 HTTP 入站请求的链路追踪拦截器。
//
// # 两级拦截
//
//   - [Interceptor]：请求级。提取 W3C traceparent，开启 server span
//     "<METHOD> <route>"，确保 X-Request-ID，记录 http_request_duration_seconds
//     与 http_requests_total。
//   - [MethodInterceptor]：处理器级。在请求 span 之下开启 "<class>.<method>" 子 span，
//     只在失败时记录日志。
//
// 业务层再通过 xspan.Wrap 建立服务级 span，三级 span 粒度不同，按 context 逐级嵌套。
//
// # 路由与基数
//
// 指标与 span 名使用路由模板（gin FullPath、ServeMux Pattern 或 WithRouteFunc），
// 无模板时使用 [NormalizePath] 把数字段与 24 位十六进制段替换为 :id，
// 结果缓存在 LRU 中（[RouteNormalizer]）。
//
// # 使用方式
//
//	ic, _ := xtrace.NewInterceptor(logger, httpMetrics, xtrace.WithSkipPaths("/metrics"))
//	mi, _ := xtrace.NewMethodInterceptor(logger)
//	router.Use(ic.Gin(), mi.Gin())
//
// net/http：
//
//	handler := ic.Middleware(mux)
//
// # 失败语义
//
// gin 处理器通过 c.Error 上报错误，状态码取自错误链上的 [StatusCoder]，默认 500。
// panic 会被记录（span Error、指标、堆栈日志）后重新抛出，交给外层 recovery。
package xtrace
