package xspan

import "errors"

var (
	// ErrNilLogger 参与追踪的组件必须持有 logger。
	ErrNilLogger = errors.New("xspan: logger is required")
	// ErrCreateCounter 创建 OTel Counter 失败。
	ErrCreateCounter = errors.New("xspan: create counter failed")
	// ErrCreateHistogram 创建 OTel Histogram 失败。
	ErrCreateHistogram = errors.New("xspan: create histogram failed")
)
