package xmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 所有句柄方法的 labelValues 与描述符的 LabelNames 一一对应；
// 数量不符时返回 *LabelArityError，不记录样本。

func checkArity(d Descriptor, values []string) error {
	if len(values) != len(d.LabelNames) {
		return &LabelArityError{Name: d.Name, Want: len(d.LabelNames), Got: len(values)}
	}
	return nil
}

// =============================================================================
// Counter
// =============================================================================

// Counter 单调递增计数器。
type Counter struct {
	desc Descriptor
	vec  *prometheus.CounterVec
}

// Descriptor 返回描述符。
func (c *Counter) Descriptor() Descriptor { return c.desc }

// Inc 加 1。
func (c *Counter) Inc(labelValues ...string) error {
	return c.Add(1, labelValues...)
}

// Add 增加 v，v 不能为负。
func (c *Counter) Add(v float64, labelValues ...string) error {
	if v < 0 {
		return ErrNegativeCounter
	}
	if err := checkArity(c.desc, labelValues); err != nil {
		return err
	}
	m, err := c.vec.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return err
	}
	m.Add(v)
	return nil
}

// =============================================================================
// Gauge
// =============================================================================

// Gauge 可增可减的瞬时值。
type Gauge struct {
	desc Descriptor
	vec  *prometheus.GaugeVec
}

// Descriptor 返回描述符。
func (g *Gauge) Descriptor() Descriptor { return g.desc }

func (g *Gauge) metric(labelValues []string) (prometheus.Gauge, error) {
	if err := checkArity(g.desc, labelValues); err != nil {
		return nil, err
	}
	return g.vec.GetMetricWithLabelValues(labelValues...)
}

// Set 设置为 v。
func (g *Gauge) Set(v float64, labelValues ...string) error {
	m, err := g.metric(labelValues)
	if err != nil {
		return err
	}
	m.Set(v)
	return nil
}

// Add 增加 v（可为负）。
func (g *Gauge) Add(v float64, labelValues ...string) error {
	m, err := g.metric(labelValues)
	if err != nil {
		return err
	}
	m.Add(v)
	return nil
}

// Inc 加 1。
func (g *Gauge) Inc(labelValues ...string) error {
	return g.Add(1, labelValues...)
}

// Dec 减 1。
func (g *Gauge) Dec(labelValues ...string) error {
	return g.Add(-1, labelValues...)
}

// =============================================================================
// Histogram / Summary
// =============================================================================

// Histogram 分桶统计。
type Histogram struct {
	desc Descriptor
	vec  *prometheus.HistogramVec
}

// Descriptor 返回描述符。
func (h *Histogram) Descriptor() Descriptor { return h.desc }

// Observe 记录一次观测值。
func (h *Histogram) Observe(v float64, labelValues ...string) error {
	if err := checkArity(h.desc, labelValues); err != nil {
		return err
	}
	m, err := h.vec.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return err
	}
	m.Observe(v)
	return nil
}

// Summary 分位数统计。
type Summary struct {
	desc Descriptor
	vec  *prometheus.SummaryVec
}

// Descriptor 返回描述符。
func (s *Summary) Descriptor() Descriptor { return s.desc }

// Observe 记录一次观测值。
func (s *Summary) Observe(v float64, labelValues ...string) error {
	if err := checkArity(s.desc, labelValues); err != nil {
		return err
	}
	m, err := s.vec.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return err
	}
	m.Observe(v)
	return nil
}
