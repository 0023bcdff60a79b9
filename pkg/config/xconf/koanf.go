package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config 已加载的只读配置。
type Config struct {
	k      *koanf.Koanf
	path   string
	format Format
	tag    string
}

// New 从文件路径创建配置实例，按扩展名识别格式（.yaml/.yml 或 .json）。
func New(path string, opts ...Option) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	c, err := build(data, format, opts)
	if err != nil {
		return nil, err
	}
	c.path = path
	return c, nil
}

// NewFromBytes 从字节数据创建配置实例，需要显式指定格式。
//
// 空数据创建只含默认值与覆盖值的配置。
func NewFromBytes(data []byte, format Format, opts ...Option) (*Config, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}
	return build(data, format, opts)
}

func build(data []byte, format Format, opts []Option) (*Config, error) {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	k := koanf.New(options.Delim)
	if err := setAll(k, options.Defaults); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return nil, err
		}
	}
	if err := setAll(k, options.Overrides); err != nil {
		return nil, err
	}

	return &Config{k: k, format: format, tag: options.Tag}, nil
}

// Unmarshal 将指定路径的配置反序列化到目标结构体，path 为空时反序列化整个配置。
func (c *Config) Unmarshal(path string, target any) error {
	if err := c.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{
		Tag: c.tag,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Has 报告配置中是否存在 key。
func (c *Config) Has(key string) bool {
	return c.k.Exists(key)
}

// String 返回 key 对应的字符串值，不存在时返回空字符串。
func (c *Config) String(key string) string {
	return c.k.String(key)
}

// Keys 返回排序后的全部叶子键。
func (c *Config) Keys() []string {
	keys := c.k.Keys()
	sort.Strings(keys)
	return keys
}

// Client 返回底层 koanf 实例的副本，修改副本不影响本配置。
func (c *Config) Client() *koanf.Koanf {
	return c.k.Copy()
}

// Path 返回配置文件路径，从字节数据创建时为空。
func (c *Config) Path() string {
	return c.path
}

// Format 返回配置格式。
func (c *Config) Format() Format {
	return c.format
}

// =============================================================================
// 内部辅助函数
// =============================================================================

// setAll 按键排序写入，保证同一父路径下的写入顺序稳定
func setAll(k *koanf.Koanf, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := k.Set(key, values[key]); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSetFailed, key, err)
		}
	}
	return nil
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// loadData 解析数据并合并到 koanf 实例。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
