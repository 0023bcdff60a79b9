package xlog

import "context"

// SetNewBuilderForTest 替换默认 logger 的构建器工厂，返回恢复函数
func SetNewBuilderForTest(fn func() *Builder) func() {
	old := newBuilder
	newBuilder = fn
	return func() { newBuilder = old }
}

// SetOTLPExporterFactoryForTest 替换远端 OTLP exporter 工厂，返回恢复函数
func SetOTLPExporterFactoryForTest(fn func(context.Context, string, map[string]string) (Exporter, error)) func() {
	old := newOTLPExporter
	newOTLPExporter = fn
	return func() { newOTLPExporter = old }
}
