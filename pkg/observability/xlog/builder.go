package xlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xscaffold/pkg/observability/xrotate"
)

// ReplaceAttrFunc 属性替换函数类型
//
// 用于字段重命名、敏感信息脱敏、字段过滤。返回空 Key 的 Attr 会移除该属性。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// closeTimeout cleanup 等待远端 sink 排空的上限
const closeTimeout = 5 * time.Second

// newOTLPExporter 远端 exporter 工厂，测试可替换
var newOTLPExporter = NewOTLPExporter

// Builder 日志配置构建器
//
// first-error-wins：遇到第一个配置错误后，Build 返回该错误。
type Builder struct {
	output       io.Writer
	levelVar     *slog.LevelVar
	format       string
	addSource    bool
	enableEnrich bool
	replaceAttr  ReplaceAttrFunc
	rotator      xrotate.Rotator
	onError      func(error)

	service     string
	environment string

	remoteExporter Exporter
	remoteEndpoint string
	remoteHeaders  map[string]string
	remoteOpts     []RemoteOption

	err error
}

// New 创建配置构建器
//
// 默认：stdout、Info 级别、text 格式、启用追踪字段注入。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:       os.Stdout,
		levelVar:     levelVar,
		format:       "text",
		enableEnrich: true,
	}
}

// SetOutput 设置控制台输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w != nil {
		b.output = w
	}
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值使用 text
func (b *Builder) SetFormat(format string) *Builder {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.setErr(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 是否注入 trace_id/span_id/request_id，默认启用
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enableEnrich = enable
	return b
}

// SetRotation 控制台之外同时写入轮转文件
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	rotator, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.rotator = rotator
	return b
}

// SetOnError 设置内部错误回调（Handler.Handle 失败时调用）
//
// 回调在日志调用路径同步执行，应保持轻量。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 设置属性替换函数
//
//	logger, _, _ := xlog.New().
//		SetReplaceAttr(func(groups []string, a slog.Attr) slog.Attr {
//			if a.Key == "password" {
//				return slog.String(a.Key, "***")
//			}
//			return a
//		}).
//		Build()
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetService 设置服务名与运行环境，作为每条日志的固定属性
func (b *Builder) SetService(name, environment string) *Builder {
	b.service = name
	b.environment = environment
	return b
}

// SetRemote 启用异步远端 sink，使用给定 exporter
func (b *Builder) SetRemote(exporter Exporter, opts ...RemoteOption) *Builder {
	if exporter == nil {
		b.setErr(ErrNilExporter)
		return b
	}
	b.remoteExporter = exporter
	b.remoteOpts = opts
	return b
}

// SetRemoteEndpoint 启用异步远端 sink，Build 时创建 OTLP/HTTP exporter
//
// exporter 创建失败时只在控制台告警，logger 仍然可用。
func (b *Builder) SetRemoteEndpoint(endpoint string, headers map[string]string, opts ...RemoteOption) *Builder {
	if endpoint == "" {
		b.setErr(ErrEmptyEndpoint)
		return b
	}
	b.remoteEndpoint = endpoint
	b.remoteHeaders = headers
	b.remoteOpts = opts
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例
//   - func() error: 清理函数，排空远端 sink 并关闭轮转文件
//   - error: 配置错误
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		if b.rotator != nil {
			_ = b.rotator.Close() //nolint:errcheck // 配置错误优先
		}
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:       b.levelVar,
		AddSource:   b.addSource,
		ReplaceAttr: levelNames(b.replaceAttr),
	}

	out := b.output
	if b.rotator != nil {
		out = io.MultiWriter(b.output, b.rotator)
	}

	var console slog.Handler
	switch b.format {
	case "json":
		console = slog.NewJSONHandler(out, opts)
	default:
		console = slog.NewTextHandler(out, opts)
	}

	handler := console
	remote := b.buildRemote(console)
	if remote != nil {
		fanout, err := NewFanoutHandler(console, remote)
		if err != nil {
			return nil, nil, err
		}
		handler = fanout
	}

	if b.enableEnrich {
		enrich, err := NewEnrichHandler(handler)
		if err != nil {
			return nil, nil, err
		}
		handler = enrich
	}

	if b.service != "" || b.environment != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String(KeyService, b.service),
			slog.String(KeyEnvironment, b.environment),
		})
	}

	logger := &xlogger{
		handler:        handler,
		levelVar:       b.levelVar,
		onError:        b.onError,
		errorCount:     new(atomic.Uint64),
		addSource:      b.addSource,
		inErrorHandler: new(atomic.Bool),
	}
	return logger, b.createCleanup(remote), nil
}

// buildRemote 创建远端 handler，失败时在控制台告警并返回 nil
func (b *Builder) buildRemote(console slog.Handler) *RemoteHandler {
	exporter := b.remoteExporter
	if exporter == nil && b.remoteEndpoint != "" {
		exp, err := newOTLPExporter(context.Background(), b.remoteEndpoint, b.remoteHeaders)
		if err != nil {
			warnConsole(console, "xlog: remote log sink disabled", Err(err))
			return nil
		}
		exporter = exp
	}
	if exporter == nil {
		return nil
	}

	opts := make([]RemoteOption, 0, len(b.remoteOpts)+2)
	opts = append(opts,
		WithRemoteLevel(b.levelVar),
		WithRemoteService(b.service, b.environment),
	)
	opts = append(opts, b.remoteOpts...)

	remote, err := NewRemoteHandler(exporter, console, opts...)
	if err != nil {
		warnConsole(console, "xlog: remote log sink disabled", Err(err))
		return nil
	}
	return remote
}

func warnConsole(h slog.Handler, msg string, attrs ...slog.Attr) {
	r := slog.NewRecord(time.Now(), slog.LevelWarn, msg, 0)
	r.AddAttrs(attrs...)
	_ = h.Handle(context.Background(), r) //nolint:errcheck // 控制台失败无处可报
}

// createCleanup 创建只执行一次的清理函数
func (b *Builder) createCleanup(remote *RemoteHandler) func() error {
	var (
		once sync.Once
		err  error
	)
	rotator := b.rotator
	return func() error {
		once.Do(func() {
			var errs []error
			if remote != nil {
				ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
				errs = append(errs, remote.Close(ctx))
				cancel()
			}
			if rotator != nil {
				errs = append(errs, rotator.Close())
			}
			err = errors.Join(errs...)
		})
		return err
	}
}
