package xlog

import (
	"context"
	"log/slog"

	"github.com/omeyang/xscaffold/pkg/context/xctx"
)

// EnrichHandler 从 context 提取追踪信息并注入日志
//
// 装饰模式，包装底层 slog.Handler，在 Handle() 时添加：
//   - trace_id, span_id：仅当 ctx 中存在有效 span 时
//   - request_id：仅当 ctx 中存在时
//
// 字段缺失时直接省略，不输出空字符串。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 创建 EnrichHandler
//
// 调用 WithGroup 后 enrich 属性会归入该 group，这是 slog handler 的固有限制。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

// Enabled 委托给底层 handler
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// maxEnrichAttrs trace_id + span_id + request_id
const maxEnrichAttrs = 3

// Handle 注入追踪字段后交给底层 handler
//
// 根据 slog 契约，修改前必须 Clone record。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [maxEnrichAttrs]slog.Attr
	attrs := xctx.AppendTraceAttrs(buf[:0], ctx)
	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 返回带分组的新 handler
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
