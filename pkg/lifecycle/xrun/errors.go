package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 表示因收到系统信号而终止，使用 errors.Is 判断。
	ErrSignal = errors.New("received signal")
	// ErrNilFunc 服务函数为 nil。
	ErrNilFunc = errors.New("xrun: nil service func")
	// ErrNilServer HTTP 服务器为 nil。
	ErrNilServer = errors.New("xrun: nil http server")
)

// SignalError 包含触发终止的具体信号。
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    fmt.Printf("received signal: %v\n", sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

// Is 支持 errors.Is(err, ErrSignal)。
func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}

func (e *SignalError) Unwrap() error {
	return ErrSignal
}
