package xrun

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServerInterface HTTP 服务器接口，*http.Server 天然满足。
type HTTPServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServer 把 HTTP 服务器包装为支持优雅关闭的服务函数。
//
// ctx 取消后调用 Shutdown，shutdownTimeout ≤0 表示等待全部在途请求完成。
// 外部直接关闭服务器（ctx 未取消）时返回 nil。
func HTTPServer(server HTTPServerInterface, shutdownTimeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if server == nil {
			return ErrNilServer
		}
		shutdownErrCh := make(chan error, 1)
		// listenDone 通知关闭 goroutine ListenAndServe 已自行返回
		listenDone := make(chan struct{})

		go func() {
			select {
			case <-ctx.Done():
				shutdownCtx := context.WithoutCancel(ctx)
				if shutdownTimeout > 0 {
					var cancel context.CancelFunc
					shutdownCtx, cancel = context.WithTimeout(shutdownCtx, shutdownTimeout)
					defer cancel()
				}
				shutdownErrCh <- server.Shutdown(shutdownCtx)
			case <-listenDone:
			}
		}()

		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			select {
			case shutdownErr := <-shutdownErrCh:
				return shutdownErr
			case <-ctx.Done():
				return <-shutdownErrCh
			default:
				close(listenDone)
				return nil
			}
		}
		close(listenDone)
		return err
	}
}
