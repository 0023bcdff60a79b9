// Package xrun 管理进程内多个长期运行服务的启动、信号处理与协调关闭。
//
// 基于 errgroup：任一服务返回错误、收到系统信号或父 context 取消时，
// 其余服务都会收到取消信号。
//
//	server := &http.Server{Addr: ":3000", Handler: handler}
//	err := xrun.RunWithOptions(ctx, []xrun.Option{
//	    xrun.WithName("xscaffold"),
//	    xrun.WithLogger(logger),
//	}, xrun.HTTPServer(server, 10*time.Second))
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常的信号退出
//	}
//
// # 退出原因
//
// [Group.Wait] 过滤普通的 context.Canceled，但保留显式原因：
// 信号退出返回 *[SignalError]，[Group.Cancel] 传入的 cause 原样返回。
package xrun
