package config

import "errors"

var (
	// ErrInvalidConfig 配置项取值非法且无法回退。
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrInvalidHeaders OTLP_HEADERS 不是 JSON 对象。
	ErrInvalidHeaders = errors.New("config: OTLP_HEADERS must be a JSON object of strings")
)
