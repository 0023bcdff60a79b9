package xspan

import (
	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// Tracer 组合 Observer 与 Logger，是 [Wrap]、[Call]、[Do] 的执行载体。
//
// Tracer 创建后只读，可被多个 goroutine 共享。
type Tracer struct {
	logger   xlog.Logger
	observer Observer
}

// NewTracer 创建 Tracer。logger 为必填项，opts 透传给 [NewOTelObserver]。
func NewTracer(logger xlog.Logger, opts ...Option) (*Tracer, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	observer, err := NewOTelObserver(opts...)
	if err != nil {
		return nil, err
	}
	return &Tracer{logger: logger, observer: observer}, nil
}

// Logger 返回 Tracer 持有的 logger。
func (t *Tracer) Logger() xlog.Logger {
	return t.logger
}

// Observer 返回底层 Observer，用于需要显式 Start/End 的场景。
func (t *Tracer) Observer() Observer {
	if t == nil {
		return NoopObserver{}
	}
	return t.observer
}
