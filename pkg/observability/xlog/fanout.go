package xlog

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler 把每条记录分发给多个 handler
//
// 每个子 handler 独立判断 Enabled；某个子 handler 失败不影响其它子 handler，
// 所有错误合并后返回，由 logger 的 onError 处理。
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler 创建 FanoutHandler，nil handler 会被忽略
func NewFanoutHandler(handlers ...slog.Handler) (*FanoutHandler, error) {
	hs := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	if len(hs) == 0 {
		return nil, ErrNilHandler
	}
	return &FanoutHandler{handlers: hs}, nil
}

// Enabled 任一子 handler 启用即启用
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, c := range h.handlers {
		if c.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle 依次交给启用的子 handler
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, c := range h.handlers {
		if !c.Enabled(ctx, r.Level) {
			continue
		}
		if err := c.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs 对每个子 handler 应用属性
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(h.handlers))
	for i, c := range h.handlers {
		hs[i] = c.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: hs}
}

// WithGroup 对每个子 handler 应用分组
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(h.handlers))
	for i, c := range h.handlers {
		hs[i] = c.WithGroup(name)
	}
	return &FanoutHandler{handlers: hs}
}
