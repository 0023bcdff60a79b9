package xsampling

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xscaffold/pkg/context/xctx"
)

// KeyFunc 从上下文中提取采样 key
//
// 相同的 key 总是产生相同的采样决策。返回空字符串时回退到随机采样。
type KeyFunc func(ctx context.Context) string

// KeyBasedOption 配置 KeyBasedSampler
type KeyBasedOption func(*KeyBasedSampler)

// WithOnEmptyKey 设置空 key 回调，在随机回退前调用，用于发现上下文传播断裂。
//
// 回调在采样热路径上执行，应当轻量；nil 回调被忽略。
func WithOnEmptyKey(fn func()) KeyBasedOption {
	return func(s *KeyBasedSampler) {
		if fn != nil {
			s.onEmptyKey = fn
		}
	}
}

// KeyBasedSampler 基于 key 的一致性采样
//
// 按 trace id 采样时，同一条链路在所有服务中被一致地采样或丢弃。
type KeyBasedSampler struct {
	rate       float64
	keyFunc    KeyFunc
	onEmptyKey func()
}

// NewKeyBasedSampler 创建一致性采样器。
//
// rate 超出 [0.0, 1.0] 返回 ErrInvalidRate；keyFunc 为 nil 返回 ErrNilKeyFunc；
// nil option 返回 ErrNilOption。
//
//	sampler, err := NewKeyBasedSampler(0.1, TraceIDKey)
func NewKeyBasedSampler(rate float64, keyFunc KeyFunc, opts ...KeyBasedOption) (*KeyBasedSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if keyFunc == nil {
		return nil, ErrNilKeyFunc
	}
	s := &KeyBasedSampler{rate: rate, keyFunc: keyFunc}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(s)
	}
	return s, nil
}

func (s *KeyBasedSampler) ShouldSample(ctx context.Context) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}

	var key string
	if ctx != nil {
		key = s.keyFunc(ctx)
	}
	if key == "" {
		if s.onEmptyKey != nil {
			s.onEmptyKey()
		}
		return randomFloat64() < s.rate
	}

	// xxhash 确定性且零分配，同一 key 在所有进程中哈希一致
	normalized := float64(xxhash.Sum64String(key)) / float64(math.MaxUint64)
	return normalized < s.rate
}

// Rate 返回采样比率
func (s *KeyBasedSampler) Rate() float64 {
	return s.rate
}

// =============================================================================
// trace id 作为采样 key
// =============================================================================

type traceIDKey struct{}

// ContextWithTraceID 在 ctx 中记录待决策 span 的 trace id
//
// 新的根 span 在采样时还未进入 ctx，由 [OTelSampler] 调用此函数传入。
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDKey 以 trace id 作为采样 key：优先取待决策 span 的 trace id，
// 其次取 ctx 中活跃 span 的 trace id。
func TraceIDKey(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey{}).(string); ok && id != "" {
		return id
	}
	return xctx.TraceID(ctx)
}

var _ Sampler = (*KeyBasedSampler)(nil)
