package xmetrics

import (
	"strconv"
	"time"
)

// HTTP 指标名称与标签
const (
	MetricHTTPRequestDuration = "http_request_duration_seconds"
	MetricHTTPRequestsTotal   = "http_requests_total"
	MetricAppInfo             = "app_info"

	LabelMethod     = "method"
	LabelRoute      = "route"
	LabelStatusCode = "status_code"
)

// HTTPDurationBuckets 请求耗时的桶边界（秒）
var HTTPDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10}

// HTTPMetrics 记录 HTTP 请求的耗时与数量，维度 (method, route, status_code)。
type HTTPMetrics struct {
	duration *Histogram
	total    *Counter
}

// NewHTTPMetrics 在 reg 上注册 HTTP 请求指标。
func NewHTTPMetrics(reg *Registry) (*HTTPMetrics, error) {
	labels := []string{LabelMethod, LabelRoute, LabelStatusCode}
	duration, err := reg.CreateHistogram(MetricHTTPRequestDuration,
		"Duration of HTTP requests in seconds", HTTPDurationBuckets, labels...)
	if err != nil {
		return nil, err
	}
	total, err := reg.CreateCounter(MetricHTTPRequestsTotal,
		"Total number of HTTP requests", labels...)
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{duration: duration, total: total}, nil
}

// RecordHTTPRequest 记录一次请求。route 应为路由模板或归一化后的路径。
func (m *HTTPMetrics) RecordHTTPRequest(method, route string, statusCode int, d time.Duration) error {
	status := strconv.Itoa(statusCode)
	if err := m.duration.Observe(d.Seconds(), method, route, status); err != nil {
		return err
	}
	return m.total.Inc(method, route, status)
}

// RegisterAppInfo 注册值恒为 1 的 app_info 指标，携带版本与环境标签。
func RegisterAppInfo(reg *Registry, version, environment string) error {
	info, err := reg.CreateGauge(MetricAppInfo, "Application information", "version", "environment")
	if err != nil {
		return err
	}
	return info.Set(1, version, environment)
}
