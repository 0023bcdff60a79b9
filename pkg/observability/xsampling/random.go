package xsampling

import (
	"math"
	"math/rand/v2"
)

// randomFloat64 返回 [0.0, 1.0) 范围内的随机浮点数，用于空 key 时的随机回退
//
// 采样只需要统计随机性，math/rand/v2 的全局源并发安全且无锁竞争。
func randomFloat64() float64 {
	return rand.Float64()
}

// validateRate 校验采样比率在 [0.0, 1.0] 内
func validateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return ErrInvalidRate
	}
	return nil
}
