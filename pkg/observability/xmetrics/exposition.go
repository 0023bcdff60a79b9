package xmetrics

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// ContentType /metrics 响应的内容类型
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Snapshot 以 Prometheus 文本格式导出当前全部指标：
// 每个指标族一组 # HELP、# TYPE 行，每个标签组合一行样本。
func (r *Registry) Snapshot() (string, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&sb, mf); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// Handler 返回 /metrics 的 HTTP 处理器。
//
// 采集失败时返回 500 与 "Error collecting metrics: <msg>"，并记录错误日志（logger 可为 nil）。
// 处理器自身的请求计数（promhttp_metric_handler_requests_*）注册在同一注册表。
func (r *Registry) Handler(logger xlog.Logger) http.Handler {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		text, err := r.Snapshot()
		if err != nil {
			if logger != nil {
				logger.Error(requestContext(req), "Error collecting metrics",
					xlog.Err(err), xlog.Component("xmetrics"))
			}
			http.Error(w, "Error collecting metrics: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, text)
	})
	return promhttp.InstrumentMetricHandler(r.registerer, h)
}

func requestContext(req *http.Request) context.Context {
	if req == nil {
		return context.Background()
	}
	return req.Context()
}
