package xlog

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
)

// otlpExporter 把 Record 转换为 OTel SDK 日志记录，经 OTLP/HTTP 发送
type otlpExporter struct {
	exp sdklog.Exporter
}

var _ Exporter = (*otlpExporter)(nil)

// NewOTLPExporter 创建 OTLP/HTTP 日志导出器
//
// endpoint 为完整 URL（如 http://localhost:4318/v1/logs）；headers 附加到每个请求。
// 构造不建立连接，网络错误在导出时由远端 sink 处理。
func NewOTLPExporter(ctx context.Context, endpoint string, headers map[string]string) (Exporter, error) {
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if len(headers) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(headers))
	}
	exp, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("xlog: create otlp log exporter: %w", err)
	}
	return &otlpExporter{exp: exp}, nil
}

// Export 转换并发送一批记录
func (e *otlpExporter) Export(ctx context.Context, records []Record) error {
	out := make([]sdklog.Record, len(records))
	now := time.Now()
	for i := range records {
		toSDKRecord(&out[i], &records[i], now)
	}
	return e.exp.Export(ctx, out)
}

// Shutdown 关闭底层 exporter
func (e *otlpExporter) Shutdown(ctx context.Context) error {
	return e.exp.Shutdown(ctx)
}

func toSDKRecord(dst *sdklog.Record, src *Record, observed time.Time) {
	dst.SetTimestamp(src.Timestamp)
	dst.SetObservedTimestamp(observed)
	dst.SetSeverity(otellog.Severity(src.SeverityNumber))
	dst.SetSeverityText(src.SeverityText)
	dst.SetBody(otellog.StringValue(src.Body))

	kvs := make([]otellog.KeyValue, 0, len(src.Attributes))
	for k, v := range src.Attributes {
		kvs = append(kvs, otellog.String(k, v))
	}
	dst.SetAttributes(kvs...)

	if tid, err := trace.TraceIDFromHex(src.Attributes[AttrTraceID]); err == nil {
		dst.SetTraceID(tid)
	}
	if sid, err := trace.SpanIDFromHex(src.Attributes[AttrSpanID]); err == nil {
		dst.SetSpanID(sid)
	}
}
