package xmetrics

import (
	"fmt"

	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterProvider 返回写入本注册表的 OTel MeterProvider，多次调用返回同一实例。
//
// 调用方负责在退出时 Shutdown。
func (r *Registry) MeterProvider() (*sdkmetric.MeterProvider, error) {
	r.meterOnce.Do(func() {
		exporter, err := otelprom.New(
			otelprom.WithRegisterer(r.registerer),
			otelprom.WithoutTargetInfo(),
			otelprom.WithoutScopeInfo(),
		)
		if err != nil {
			r.meterErr = fmt.Errorf("xmetrics: create prometheus exporter: %w", err)
			return
		}
		r.meter = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	})
	return r.meter, r.meterErr
}
