package xsampling

import "context"

// Sampler 采样策略接口
//
// 返回 true 表示应该采样，false 表示跳过。
type Sampler interface {
	// ShouldSample 判断是否应该采样
	//
	// ctx 携带采样决策所需的上下文信息（如 trace id），供 KeyBasedSampler 使用。
	ShouldSample(ctx context.Context) bool
}
