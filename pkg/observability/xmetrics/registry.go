package xmetrics

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Kind 指标类型
type Kind string

const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindHistogram Kind = "histogram"
	KindSummary   Kind = "summary"
)

// Descriptor 描述一个已注册的指标。
type Descriptor struct {
	Name       string
	Help       string
	Kind       Kind
	LabelNames []string
	// Buckets 仅 histogram 有效
	Buckets []float64
	// Percentiles 仅 summary 有效
	Percentiles []float64
}

// DefaultBuckets histogram 未指定 buckets 时使用：0.1 起步，步长 0.1，共 10 个
func DefaultBuckets() []float64 {
	return prometheus.LinearBuckets(0.1, 0.1, 10)
}

// DefaultPercentiles summary 未指定分位数时使用
func DefaultPercentiles() []float64 {
	return []float64{0.5, 0.9, 0.95, 0.99}
}

// =============================================================================
// 选项
// =============================================================================

type registryOptions struct {
	defaultLabels  map[string]string
	processMetrics bool
	processPrefix  string
}

// Option 配置 Registry。
type Option func(*registryOptions)

// WithDefaultLabels 为所有注册的指标附加常量标签（如 service、environment）。
func WithDefaultLabels(labels map[string]string) Option {
	return func(o *registryOptions) {
		if len(labels) == 0 {
			return
		}
		if o.defaultLabels == nil {
			o.defaultLabels = make(map[string]string, len(labels))
		}
		for k, v := range labels {
			o.defaultLabels[k] = v
		}
	}
}

// WithProcessMetrics 注册进程与 Go 运行时采集器，指标名加 prefix 前缀。
//
// 采集器在每次抓取时采样，不需要调用方驱动。
func WithProcessMetrics(prefix string) Option {
	return func(o *registryOptions) {
		o.processMetrics = true
		o.processPrefix = prefix
	}
}

// =============================================================================
// Registry
// =============================================================================

// Registry 指标注册表，并发安全。
type Registry struct {
	reg        *prometheus.Registry
	registerer prometheus.Registerer

	mu    sync.RWMutex
	descs map[string]Descriptor

	meterOnce sync.Once
	meter     *sdkmetric.MeterProvider
	meterErr  error
}

// NewRegistry 创建独立的注册表（不使用 Prometheus 全局默认注册表）。
func NewRegistry(opts ...Option) (*Registry, error) {
	o := &registryOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	reg := prometheus.NewRegistry()
	var registerer prometheus.Registerer = reg
	if len(o.defaultLabels) > 0 {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels(o.defaultLabels), reg)
	}

	r := &Registry{
		reg:        reg,
		registerer: registerer,
		descs:      make(map[string]Descriptor),
	}

	if o.processMetrics {
		pr := prometheus.WrapRegistererWithPrefix(o.processPrefix, registerer)
		if err := pr.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, fmt.Errorf("xmetrics: register process collector: %w", err)
		}
		if err := pr.Register(collectors.NewGoCollector()); err != nil {
			return nil, fmt.Errorf("xmetrics: register go collector: %w", err)
		}
	}
	return r, nil
}

// CreateCounter 创建 Counter。
func (r *Registry) CreateCounter(name, help string, labelNames ...string) (*Counter, error) {
	desc := Descriptor{Name: name, Help: help, Kind: KindCounter, LabelNames: slices.Clone(labelNames)}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labelNames)
	if err := r.register(desc, vec); err != nil {
		return nil, err
	}
	return &Counter{desc: desc, vec: vec}, nil
}

// CreateGauge 创建 Gauge。
func (r *Registry) CreateGauge(name, help string, labelNames ...string) (*Gauge, error) {
	desc := Descriptor{Name: name, Help: help, Kind: KindGauge, LabelNames: slices.Clone(labelNames)}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labelNames)
	if err := r.register(desc, vec); err != nil {
		return nil, err
	}
	return &Gauge{desc: desc, vec: vec}, nil
}

// CreateHistogram 创建 Histogram，buckets 为空时使用 [DefaultBuckets]。
func (r *Registry) CreateHistogram(name, help string, buckets []float64, labelNames ...string) (*Histogram, error) {
	if len(buckets) == 0 {
		buckets = DefaultBuckets()
	}
	desc := Descriptor{
		Name: name, Help: help, Kind: KindHistogram,
		LabelNames: slices.Clone(labelNames), Buckets: slices.Clone(buckets),
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labelNames)
	if err := r.register(desc, vec); err != nil {
		return nil, err
	}
	return &Histogram{desc: desc, vec: vec}, nil
}

// CreateSummary 创建 Summary，percentiles 为空时使用 [DefaultPercentiles]。
//
// 每个分位数 q 的允许误差为 (1-q)/10。
func (r *Registry) CreateSummary(name, help string, percentiles []float64, labelNames ...string) (*Summary, error) {
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles()
	}
	objectives := make(map[float64]float64, len(percentiles))
	for _, q := range percentiles {
		if q <= 0 || q >= 1 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPercentile, q)
		}
		objectives[q] = (1 - q) / 10
	}
	desc := Descriptor{
		Name: name, Help: help, Kind: KindSummary,
		LabelNames: slices.Clone(labelNames), Percentiles: slices.Clone(percentiles),
	}
	vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{Name: name, Help: help, Objectives: objectives}, labelNames)
	if err := r.register(desc, vec); err != nil {
		return nil, err
	}
	return &Summary{desc: desc, vec: vec}, nil
}

// register 先查本地描述符表再交给 Prometheus 注册，二者都通过才记录描述符
func (r *Registry) register(desc Descriptor, c prometheus.Collector) error {
	if desc.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.descs[desc.Name]; ok {
		return &DuplicateRegistrationError{Name: desc.Name, Existing: existing.Kind}
	}
	if err := r.registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return &DuplicateRegistrationError{Name: desc.Name}
		}
		return fmt.Errorf("xmetrics: register %q: %w", desc.Name, err)
	}
	r.descs[desc.Name] = desc
	return nil
}

// Descriptor 按名称查询描述符。
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[name]
	return d, ok
}

// Descriptors 返回全部描述符，按名称排序。
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.descs))
	for _, d := range r.descs {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Registerer 返回带默认标签的 Registerer，供自定义采集器使用。
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registerer
}

// Gatherer 返回底层 Gatherer。
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
