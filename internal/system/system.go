// Package system 提供运行状态与诊断接口。
package system

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xspan"
)

// Component 服务层 span 与日志使用的组件名
const Component = "SystemService"

// 状态取值
const (
	StatusHealthy  = "healthy"
	StatusComplete = "complete"
)

// DefaultChecks 请求未指定检查项时使用
var DefaultChecks = []string{"basic"}

// ErrNilTracer 创建服务时 tracer 为 nil
var ErrNilTracer = errors.New("system: tracer is required")

// Info 系统运行信息。
type Info struct {
	Status      string  `json:"status"`
	Uptime      float64 `json:"uptime"`
	Timestamp   string  `json:"timestamp"`
	Environment string  `json:"environment"`
	Version     string  `json:"version"`
}

// DiagnosticsRequest 诊断请求，Checks 可省略。
type DiagnosticsRequest struct {
	Checks []string `json:"checks,omitempty"`
}

// Diagnostics 诊断结果。
type Diagnostics struct {
	DiagnosticID string  `json:"diagnosticId"`
	CompletedAt  string  `json:"completedAt"`
	Status       string  `json:"status"`
	Details      Details `json:"details"`
}

// Details 诊断明细。
type Details struct {
	ChecksRun         []string `json:"checksRun"`
	DatabaseConnected bool     `json:"databaseConnected"`
	ServicesReachable bool     `json:"servicesReachable"`
}

// Option 服务选项
type Option func(*Service)

// WithClock 替换时钟，主要用于测试。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service 系统信息服务。
type Service struct {
	tracer      *xspan.Tracer
	logger      xlog.Logger
	environment string
	version     string
	now         func() time.Time
	started     time.Time

	diagnostics func(context.Context, DiagnosticsRequest) (Diagnostics, error)
}

// NewService 创建服务，environment 与 version 原样出现在 [Info] 中。
func NewService(tracer *xspan.Tracer, environment, version string, opts ...Option) (*Service, error) {
	if tracer == nil {
		return nil, ErrNilTracer
	}
	s := &Service{
		tracer:      tracer,
		logger:      tracer.Logger(),
		environment: environment,
		version:     version,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.diagnostics = xspan.Wrap(tracer, Component, "runDiagnostics", s.doDiagnostics)
	return s, nil
}

// Info 返回运行状态，Uptime 以秒计。
func (s *Service) Info(ctx context.Context) (Info, error) {
	return xspan.Call(ctx, s.tracer, Component, "getSystemInfo", s.doInfo)
}

// RunDiagnostics 执行诊断，req.Checks 为空时使用 [DefaultChecks]。
func (s *Service) RunDiagnostics(ctx context.Context, req DiagnosticsRequest) (Diagnostics, error) {
	return s.diagnostics(ctx, req)
}

func (s *Service) doInfo(ctx context.Context) (Info, error) {
	s.logger.Info(ctx, "Retrieving system information", xlog.Context(Component))
	now := s.now()
	return Info{
		Status:      StatusHealthy,
		Uptime:      now.Sub(s.started).Seconds(),
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		Environment: s.environment,
		Version:     s.version,
	}, nil
}

func (s *Service) doDiagnostics(ctx context.Context, req DiagnosticsRequest) (Diagnostics, error) {
	checks := req.Checks
	if len(checks) == 0 {
		checks = append([]string(nil), DefaultChecks...)
	}
	s.logger.Info(ctx, "Running diagnostics with checks: "+strings.Join(checks, ", "), xlog.Context(Component))

	now := s.now()
	return Diagnostics{
		DiagnosticID: "diag-" + strconv.FormatInt(now.UnixMilli(), 10),
		CompletedAt:  now.UTC().Format(time.RFC3339Nano),
		Status:       StatusComplete,
		Details: Details{
			ChecksRun:         checks,
			DatabaseConnected: true,
			ServicesReachable: true,
		},
	}, nil
}
