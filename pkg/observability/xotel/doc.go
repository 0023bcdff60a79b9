// Package xotel 管理进程级 OpenTelemetry 追踪管线的生命周期。
//
// # 生命周期
//
//	Uninitialized → Starting → Started → ShuttingDown → Stopped
//	                 └→ Disabled（Config.Enabled = false）
//
// 同一进程内只有一条追踪管线。第一个完成 [Manager.Initialize] 的 Manager 成为所有者，
// 负责关闭；之后的 Manager 复用已有管线（非所有者），其 [Manager.Shutdown] 为空操作。
// 所有者关闭后全局状态被清空，可以重新初始化。
//
// # 使用方式
//
//	mgr, err := xotel.New(xotel.Config{
//	    Enabled:     true,
//	    ServiceName: "xscaffold",
//	    Sampler:     xotel.SamplerConfig{Type: xotel.SamplerTraceIDRatio, Ratio: 0.2},
//	    Exporter:    xotel.ExporterConfig{Protocol: xotel.ProtocolHTTP, Endpoint: "http://localhost:4318/v1/traces"},
//	    Instrumentations: xotel.InstrumentationConfig{HTTP: true, Framework: true, Logger: true},
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Shutdown(context.Background())
//
// Initialize 之后再创建 tracer（xspan.NewTracer、xtrace.NewInterceptor），
// 它们默认从全局 TracerProvider 取 tracer。
//
// # 失败语义
//
// 采样器类型未知时告警并回退 always_on；已有外部 SDK Provider 时只告警；
// Shutdown 的 flush 与关闭错误只记录日志，不返回。
package xotel
