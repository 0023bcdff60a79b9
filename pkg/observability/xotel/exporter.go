package xotel

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

// ExporterFactory 创建 span 导出器，测试中用于注入内存导出器。
type ExporterFactory func(ctx context.Context, cfg ExporterConfig) (sdktrace.SpanExporter, error)

// userAgent grpc 导出连接的 User-Agent 前缀
const userAgent = "xscaffold-xotel"

// stdoutWriter stdout 协议的输出目标
var stdoutWriter io.Writer = os.Stdout

// NewExporter 按协议创建 span 导出器。
//
//   - http（默认）：OTLP/HTTP，Endpoint 为完整 URL
//   - grpc：OTLP/gRPC
//   - stdout：格式化 JSON 输出到标准输出，用于本地调试
//
// 导出器在后台建连，创建本身不访问网络。
func NewExporter(ctx context.Context, cfg ExporterConfig) (sdktrace.SpanExporter, error) {
	protocol := strings.ToLower(strings.TrimSpace(cfg.Protocol))
	if protocol == "" {
		protocol = ProtocolHTTP
	}

	switch protocol {
	case ProtocolHTTP:
		opts := make([]otlptracehttp.Option, 0, 3)
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("xotel: create otlp http exporter: %w", err)
		}
		return exp, nil

	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(userAgent)),
		}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("xotel: create otlp grpc exporter: %w", err)
		}
		return exp, nil

	case ProtocolStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(stdoutWriter))
		if err != nil {
			return nil, fmt.Errorf("xotel: create stdout exporter: %w", err)
		}
		return exp, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, cfg.Protocol)
	}
}
