package books

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError 携带 HTTP 状态码的业务错误，实现 xtrace.StatusCoder。
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// HTTPStatus 返回对应的 HTTP 状态码。
func (e *StatusError) HTTPStatus() int {
	return e.Status
}

var (
	// ErrNotFound 图书不存在。
	ErrNotFound = &StatusError{Status: http.StatusNotFound, Message: "Book does not exist!"}
	// ErrInvalidInput 请求参数非法。
	ErrInvalidInput = &StatusError{Status: http.StatusBadRequest, Message: "Invalid book input"}
	// ErrConflict 指定的 id 已存在。
	ErrConflict = &StatusError{Status: http.StatusConflict, Message: "Book already exists!"}

	// ErrNilTracer 服务依赖 tracer。
	ErrNilTracer = errors.New("books: tracer is required")
	// ErrNilRegistry 指标注册表为 nil。
	ErrNilRegistry = errors.New("books: metrics registry is required")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// errorType 把错误归类为低基数的指标标签
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
