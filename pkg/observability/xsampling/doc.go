// Package xsampling 提供采样策略。
//
// # 策略
//
//   - Always() / Never(): 全采样 / 不采样
//   - NewKeyBasedSampler(rate, keyFunc): 基于 key 的一致性采样（xxhash）
//
// # 与 OpenTelemetry 集成
//
// [OTelSampler] 把任意 Sampler 适配为 sdktrace.Sampler。
// 链路采样通常组合为：
//
//	ks, _ := xsampling.NewKeyBasedSampler(0.1, xsampling.TraceIDKey)
//	sampler := sdktrace.ParentBased(xsampling.OTelSampler(ks, "trace_id_ratio"))
//
// xxhash 是确定性哈希，同一 trace id 在所有服务、所有实例、重启前后
// 都得到相同的采样决策。
//
// # 并发安全
//
// 所有采样器都是并发安全的。
package xsampling
