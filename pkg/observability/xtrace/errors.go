package xtrace

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNilLogger 拦截器必须持有 logger
	ErrNilLogger = errors.New("xtrace: logger is required")

	// ErrNilRecorder 请求拦截器必须持有指标记录器
	ErrNilRecorder = errors.New("xtrace: http recorder is required")

	// ErrPanic 处理器 panic 时包装的错误
	ErrPanic = errors.New("xtrace: handler panicked")
)

// StatusCoder 由携带 HTTP 状态码的错误实现。
//
// 失败请求的状态码取自错误链上第一个 StatusCoder，没有时为 500。
type StatusCoder interface {
	HTTPStatus() int
}

// StatusFromError 返回 err 对应的 HTTP 状态码。
func StatusFromError(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.HTTPStatus(); code >= 100 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("%w: %w", ErrPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrPanic, rec)
}
