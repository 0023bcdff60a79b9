package xconf

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Options 配置加载选项。
type Options struct {
	// Delim 配置键的分隔符，默认为 "."。
	Delim string

	// Tag 结构体标签名，用于 Unmarshal，默认为 "koanf"。
	Tag string

	// Defaults 在配置文件之前写入的默认值，键为带分隔符的完整路径。
	Defaults map[string]any

	// Overrides 在配置文件之后写入的覆盖值，键为带分隔符的完整路径。
	Overrides map[string]any
}

// Option 定义配置选项函数类型。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

// WithDelim 设置配置键分隔符。
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签名。
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithDefaults 设置默认值层，可多次调用，后写入的同名键生效。
func WithDefaults(values map[string]any) Option {
	return func(o *Options) {
		o.Defaults = mergeValues(o.Defaults, values)
	}
}

// WithOverrides 设置覆盖值层，可多次调用，后写入的同名键生效。
func WithOverrides(values map[string]any) Option {
	return func(o *Options) {
		o.Overrides = mergeValues(o.Overrides, values)
	}
}

func mergeValues(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
