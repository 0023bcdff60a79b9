package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// Group 基于 errgroup + context 管理多个服务的并发运行和协调关闭。
//
// Go、GoWithName、Cancel 可并发调用；Wait 只调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 context 在任一服务出错或 Group 取消时被取消。
// nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 在新 goroutine 中运行 fn，fn 应在 ctx.Done() 后尽快返回。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，额外记录服务的启停日志。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		attrs := []slog.Attr{slog.String("group", g.opts.name), slog.String("service", name)}

		g.opts.logger.Debug(g.ctx, "service starting", attrs...)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(g.ctx, "service exited with error", append(attrs, xlog.Err(err))...)
		} else {
			g.opts.logger.Debug(g.ctx, "service stopped", attrs...)
		}
		return err
	})
}

// Wait 等待所有服务退出，返回第一个错误。
//
// 普通的 context.Canceled 被过滤为 nil；Cancel(cause) 或信号设置的原因会被返回，
// 即使所有服务都返回 nil。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug(g.causeCtx, "all services stopped", slog.String("group", g.opts.name))

	if errors.Is(err, context.Canceled) {
		// 只有 Group 自身（或父 context）被取消时才过滤，服务内部产生的 Canceled 原样返回
		if g.causeCtx.Err() == nil {
			return err
		}
		return g.explicitCause()
	}
	if err == nil && g.causeCtx.Err() != nil {
		return g.explicitCause()
	}
	return err
}

func (g *Group) explicitCause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 取消所有服务，cause 作为 Wait 的返回值。
//
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// =============================================================================
// 便捷函数
// =============================================================================

// runGroup 在 Group 中注册信号监听服务（除非禁用），收到信号后以 *SignalError 取消。
func runGroup(ctx context.Context, opts []Option, services []func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		// 空列表使用默认信号；signal.Notify 无参会订阅全部信号
		if len(signals) == 0 {
			signals = DefaultSignals()
		}

		g.Go(func(ctx context.Context) error {
			testc := testSigChan(ctx)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, signals...)
			defer signal.Stop(sigCh)

			var sig os.Signal
			select {
			case sig = <-testc:
			case sig = <-sigCh:
			case <-ctx.Done():
				return ctx.Err()
			}

			g.opts.logger.Info(ctx, "received signal",
				slog.String("group", g.opts.name),
				slog.String("signal", sig.String()),
			)
			g.cancel(&SignalError{Signal: sig})
			return nil
		})
	}

	for i, svc := range services {
		g.GoWithName(serviceName(i), svc)
	}
	return g.Wait()
}

func serviceName(i int) string {
	return "service-" + strconv.Itoa(i)
}

// Run 监听默认信号并运行服务，收到信号时返回 *SignalError。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return runGroup(ctx, nil, services)
}

// RunWithOptions 与 Run 相同，但支持配置选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return runGroup(ctx, opts, services)
}
