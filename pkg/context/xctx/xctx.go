package xctx

import "errors"

// contextKey 包私有的 context key 类型
type contextKey string

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingRequestID request_id 缺失
	ErrMissingRequestID = errors.New("xctx: missing request_id")

	// ErrEmptyRequestID 写入的 request_id 为空
	ErrEmptyRequestID = errors.New("xctx: empty request_id")
)
