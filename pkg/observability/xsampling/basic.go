package xsampling

import (
	"context"
)

type alwaysSampler struct{}

var alwaysSamplerInstance = &alwaysSampler{}

// Always 返回全采样策略
func Always() Sampler {
	return alwaysSamplerInstance
}

func (s *alwaysSampler) ShouldSample(_ context.Context) bool {
	return true
}

type neverSampler struct{}

var neverSamplerInstance = &neverSampler{}

// Never 返回不采样策略
func Never() Sampler {
	return neverSamplerInstance
}

func (s *neverSampler) ShouldSample(_ context.Context) bool {
	return false
}

var (
	_ Sampler = (*alwaysSampler)(nil)
	_ Sampler = (*neverSampler)(nil)
)
