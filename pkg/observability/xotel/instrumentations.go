package xotel

// Instrumentations 已启用的埋点能力集合。能力集合固定为 http、framework、logger。
type Instrumentations uint8

const (
	// InstrumentHTTP 请求级拦截与 W3C 上下文传播。
	InstrumentHTTP Instrumentations = 1 << iota
	// InstrumentFramework gin 处理器级 span。
	InstrumentFramework
	// InstrumentLogger 日志注入 trace_id / span_id。
	InstrumentLogger
)

var instrumentationNames = []struct {
	bit  Instrumentations
	name string
}{
	{InstrumentHTTP, "http"},
	{InstrumentFramework, "framework"},
	{InstrumentLogger, "logger"},
}

// ResolveInstrumentations 根据配置计算启用的能力集合。
func ResolveInstrumentations(cfg InstrumentationConfig) Instrumentations {
	var set Instrumentations
	if cfg.HTTP {
		set |= InstrumentHTTP
	}
	if cfg.Framework {
		set |= InstrumentFramework
	}
	if cfg.Logger {
		set |= InstrumentLogger
	}
	return set
}

// Has 报告集合是否包含 i 中的全部能力。
func (s Instrumentations) Has(i Instrumentations) bool {
	return i != 0 && s&i == i
}

// Names 按固定顺序返回已启用能力的名称。
func (s Instrumentations) Names() []string {
	names := make([]string, 0, len(instrumentationNames))
	for _, n := range instrumentationNames {
		if s.Has(n.bit) {
			names = append(names, n.name)
		}
	}
	return names
}
