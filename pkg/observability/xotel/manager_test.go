package xotel_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xotel"
)

type env struct {
	logs    *bytes.Buffer
	logger  xlog.Logger
	spans   *tracetest.InMemoryExporter
	created int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	xotel.ResetForTest()
	t.Cleanup(xotel.ResetForTest)

	var logs bytes.Buffer
	logger, cleanup, err := xlog.New().
		SetOutput(&logs).
		SetFormat("json").
		SetLevel(xlog.LevelDebug).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })

	return &env{logs: &logs, logger: logger, spans: tracetest.NewInMemoryExporter()}
}

func (e *env) factory(_ context.Context, _ xotel.ExporterConfig) (sdktrace.SpanExporter, error) {
	e.created++
	return e.spans, nil
}

func (e *env) manager(t *testing.T, cfg xotel.Config) *xotel.Manager {
	t.Helper()
	m, err := xotel.New(cfg, e.logger, xotel.WithExporterFactory(e.factory), xotel.WithSyncExport())
	require.NoError(t, err)
	return m
}

func enabledConfig() xotel.Config {
	return xotel.Config{
		Enabled:        true,
		ServiceName:    "books-api",
		ServiceVersion: "1.2.3",
		Environment:    "test",
		Sampler:        xotel.SamplerConfig{Type: xotel.SamplerAlwaysOn},
		Exporter:       xotel.ExporterConfig{Protocol: xotel.ProtocolHTTP},
		Instrumentations: xotel.InstrumentationConfig{
			HTTP: true, Framework: true, Logger: true,
		},
	}
}

func TestNew_NilLogger(t *testing.T) {
	_, err := xotel.New(enabledConfig(), nil)
	assert.ErrorIs(t, err, xotel.ErrNilLogger)
}

func TestInitialize_Disabled(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t, xotel.Config{Enabled: false})

	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, xotel.StateDisabled, m.State())
	assert.False(t, m.Owner())
	assert.Nil(t, m.Handle())
	assert.Zero(t, e.created)
	assert.Contains(t, e.logs.String(), "Tracing is disabled")

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, xotel.StateDisabled, m.State())
}

func TestInitialize_StartAndShutdown(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t, enabledConfig())
	ctx := context.Background()

	require.NoError(t, m.Initialize(ctx))
	assert.Equal(t, xotel.StateStarted, m.State())
	assert.True(t, m.Owner())
	h := m.Handle()
	require.NotNil(t, h)
	assert.Same(t, h.TracerProvider(), otel.GetTracerProvider())
	assert.Equal(t, []string{"http", "framework", "logger"}, h.Instrumentations().Names())
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())

	_, span := m.TracerProvider().Tracer("test").Start(ctx, "op")
	span.End()

	spans := e.spans.GetSpans()
	require.Len(t, spans, 1)
	res := spans[0].Resource.Set()
	name, ok := res.Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "books-api", name.AsString())
	version, ok := res.Value(attribute.Key("service.version"))
	require.True(t, ok)
	assert.Equal(t, "1.2.3", version.AsString())
	envName, ok := res.Value(attribute.Key("deployment.environment.name"))
	require.True(t, ok)
	assert.Equal(t, "test", envName.AsString())

	require.NoError(t, m.Shutdown(ctx))
	assert.Equal(t, xotel.StateStopped, m.State())
	assert.False(t, m.Owner())
	assert.Nil(t, m.Handle())
	_, isNoop := otel.GetTracerProvider().(noop.TracerProvider)
	assert.True(t, isNoop)
	assert.Empty(t, otel.GetTextMapPropagator().Fields())
	assert.Contains(t, e.logs.String(), "Tracing shut down successfully")

	// 关闭后可以重新初始化
	require.NoError(t, m.Initialize(ctx))
	assert.True(t, m.Owner())
	assert.Equal(t, 2, e.created)
	require.NoError(t, m.Shutdown(ctx))
}

func TestInitialize_Idempotent(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t, enabledConfig())

	require.NoError(t, m.Initialize(context.Background()))
	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, 1, e.created)
	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestInitialize_SecondManagerReuses(t *testing.T) {
	e := newEnv(t)
	first := e.manager(t, enabledConfig())
	second := e.manager(t, enabledConfig())
	ctx := context.Background()

	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, second.Initialize(ctx))

	assert.True(t, first.Owner())
	assert.False(t, second.Owner())
	assert.Same(t, first.Handle(), second.Handle())
	assert.Equal(t, 1, e.created)

	// 非所有者关闭不影响管线
	require.NoError(t, second.Shutdown(ctx))
	assert.Equal(t, xotel.StateStopped, second.State())
	assert.Equal(t, xotel.StateStarted, first.State())
	assert.Same(t, first.Handle().TracerProvider(), otel.GetTracerProvider())

	require.NoError(t, first.Shutdown(ctx))
	_, isNoop := otel.GetTracerProvider().(noop.TracerProvider)
	assert.True(t, isNoop)
}

func TestInitialize_MarkedWithoutInstance(t *testing.T) {
	e := newEnv(t)
	xotel.MarkStartedWithoutHandleForTest()
	m := e.manager(t, enabledConfig())

	require.NoError(t, m.Initialize(context.Background()))
	assert.True(t, m.Owner())
	assert.Equal(t, 1, strings.Count(e.logs.String(), xotel.MsgReinitialize))
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestInitialize_ExporterFailure(t *testing.T) {
	e := newEnv(t)
	boom := errors.New("collector unreachable")
	m, err := xotel.New(enabledConfig(), e.logger,
		xotel.WithExporterFactory(func(context.Context, xotel.ExporterConfig) (sdktrace.SpanExporter, error) {
			return nil, boom
		}))
	require.NoError(t, err)

	err = m.Initialize(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, xotel.StateUninitialized, m.State())
	assert.Nil(t, m.Handle())

	// 失败后再次初始化会告警并重建
	ok := e.manager(t, enabledConfig())
	require.NoError(t, ok.Initialize(context.Background()))
	assert.Contains(t, e.logs.String(), xotel.MsgReinitialize)
	require.NoError(t, ok.Shutdown(context.Background()))
}

func TestInitialize_NilExporter(t *testing.T) {
	e := newEnv(t)
	m, err := xotel.New(enabledConfig(), e.logger,
		xotel.WithExporterFactory(func(context.Context, xotel.ExporterConfig) (sdktrace.SpanExporter, error) {
			return nil, nil
		}))
	require.NoError(t, err)
	assert.ErrorIs(t, m.Initialize(context.Background()), xotel.ErrNilExporter)
}

func TestInitialize_SettleDelayHonorsContext(t *testing.T) {
	e := newEnv(t)
	cfg := enabledConfig()
	cfg.SettleDelay = time.Hour
	m := e.manager(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Initialize(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, xotel.StateUninitialized, m.State())
}

func TestInitialize_SettleDelayElapses(t *testing.T) {
	e := newEnv(t)
	cfg := enabledConfig()
	cfg.SettleDelay = 5 * time.Millisecond
	m := e.manager(t, cfg)

	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, xotel.StateStarted, m.State())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestInitialize_ForeignProviderWarns(t *testing.T) {
	e := newEnv(t)
	foreign := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = foreign.Shutdown(context.Background()) })
	otel.SetTracerProvider(foreign)

	m := e.manager(t, enabledConfig())
	require.NoError(t, m.Initialize(context.Background()))
	assert.True(t, m.Owner())
	assert.Contains(t, e.logs.String(), "already started by another component")
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestInitialize_WithoutHTTPKeepsPropagator(t *testing.T) {
	e := newEnv(t)
	cfg := enabledConfig()
	cfg.Instrumentations.HTTP = false
	m := e.manager(t, cfg)

	require.NoError(t, m.Initialize(context.Background()))
	assert.Empty(t, otel.GetTextMapPropagator().Fields())
	assert.Equal(t, []string{"framework", "logger"}, m.Instrumentations().Names())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_TracerProviderBeforeStart(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t, enabledConfig())
	assert.NotNil(t, m.TracerProvider())
	assert.Zero(t, m.Instrumentations())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    xotel.State
		want string
	}{
		{xotel.StateUninitialized, "uninitialized"},
		{xotel.StateStarting, "starting"},
		{xotel.StateStarted, "started"},
		{xotel.StateShuttingDown, "shutting_down"},
		{xotel.StateStopped, "stopped"},
		{xotel.StateDisabled, "disabled"},
		{xotel.State(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.String())
	}
}
