package xrun

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLogger(t *testing.T) (xlog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetFormat("json").SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger, &buf
}

// =============================================================================
// Group
// =============================================================================

func TestGroup_Empty(t *testing.T) {
	g, _ := NewGroup(context.Background())
	assert.NoError(t, g.Wait())
}

func TestGroup_ServiceError(t *testing.T) {
	boom := errors.New("boom")
	var stopped atomic.Bool

	g, _ := NewGroup(context.Background())
	g.Go(func(ctx context.Context) error { return boom })
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		stopped.Store(true)
		return ctx.Err()
	})

	assert.ErrorIs(t, g.Wait(), boom)
	assert.True(t, stopped.Load(), "其他服务收到取消")
}

func TestGroup_NilFunc(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go(nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)

	g, _ = NewGroup(context.Background())
	g.GoWithName("nil", nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}

func TestGroup_CancelCause(t *testing.T) {
	cause := errors.New("shutdown requested")
	g, ctx := NewGroup(context.Background())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	g.Cancel(cause)

	assert.ErrorIs(t, g.Wait(), cause)
	assert.Error(t, ctx.Err())
}

func TestGroup_CancelNilFiltersCanceled(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Cancel(nil)
	assert.NoError(t, g.Wait())
}

func TestGroup_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g, _ := NewGroup(parent)
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	assert.NoError(t, g.Wait())
}

func TestGroup_InternalCanceledIsKept(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go(func(ctx context.Context) error { return context.Canceled })
	assert.ErrorIs(t, g.Wait(), context.Canceled)
}

func TestGroup_NilContextAndOption(t *testing.T) {
	//nolint:staticcheck // nil context 归一化
	g, ctx := NewGroup(nil, nil, WithName(""), WithLogger(nil))
	require.NotNil(t, ctx)
	assert.Same(t, ctx, g.Context())
	assert.Equal(t, "xrun", g.opts.name)
	assert.NoError(t, g.Wait())
}

func TestGroup_GoWithNameLogs(t *testing.T) {
	logger, logs := newTestLogger(t)
	boom := errors.New("listen failed")

	g, _ := NewGroup(context.Background(), WithLogger(logger), WithName("api"))
	g.GoWithName("http", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, g.Wait(), boom)

	out := logs.String()
	assert.Contains(t, out, "service starting")
	assert.Contains(t, out, "service exited with error")
	assert.Contains(t, out, `"group":"api"`)
	assert.Contains(t, out, `"service":"http"`)
}

// =============================================================================
// Run
// =============================================================================

func TestRun_SignalError(t *testing.T) {
	logger, logs := newTestLogger(t)
	sigCh := make(chan os.Signal, 1)
	ctx := withTestSigChan(context.Background(), sigCh)

	done := make(chan error, 1)
	go func() {
		done <- RunWithOptions(ctx, []Option{WithLogger(logger)}, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	sigCh <- syscall.SIGTERM

	select {
	case err := <-done:
		var sigErr *SignalError
		require.ErrorAs(t, err, &sigErr)
		assert.Equal(t, syscall.SIGTERM, sigErr.Signal)
		assert.ErrorIs(t, err, ErrSignal)
		assert.Contains(t, logs.String(), "received signal")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}
}

func TestRunWithOptions_WithoutSignalHandler(t *testing.T) {
	err := RunWithOptions(context.Background(), []Option{WithoutSignalHandler()},
		func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestWithSignals_Copies(t *testing.T) {
	signals := []os.Signal{syscall.SIGINT}
	opt := WithSignals(signals)
	signals[0] = syscall.SIGTERM

	o := defaultOptions()
	opt(o)
	assert.Equal(t, []os.Signal{syscall.SIGINT}, o.signals)
}

func TestDefaultSignals(t *testing.T) {
	a := DefaultSignals()
	a[0] = syscall.SIGUSR1
	assert.Equal(t, syscall.SIGHUP, DefaultSignals()[0])
	assert.Len(t, DefaultSignals(), 4)
}

func TestSignalError(t *testing.T) {
	err := &SignalError{Signal: syscall.SIGINT}
	assert.ErrorIs(t, err, ErrSignal)
	assert.Equal(t, "received signal interrupt", err.Error())
	assert.Equal(t, "received signal <nil>", (&SignalError{}).Error())
}

// =============================================================================
// HTTPServer
// =============================================================================

type fakeServer struct {
	listenErr   error
	shutdownErr error
	stop        chan struct{}
	shutdowns   atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{stop: make(chan struct{})}
}

func (s *fakeServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.stop
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	if s.shutdowns.Add(1) == 1 {
		close(s.stop)
	}
	return s.shutdownErr
}

func TestHTTPServer_GracefulShutdown(t *testing.T) {
	server := newFakeServer()
	ctx, cancel := context.WithCancel(context.Background())
	g, _ := NewGroup(ctx)
	g.Go(HTTPServer(server, time.Second))
	cancel()

	assert.NoError(t, g.Wait())
	assert.Equal(t, int32(1), server.shutdowns.Load())
}

func TestHTTPServer_ShutdownError(t *testing.T) {
	server := newFakeServer()
	server.shutdownErr = errors.New("drain timeout")
	ctx, cancel := context.WithCancel(context.Background())
	fn := HTTPServer(server, 0)
	cancel()

	assert.ErrorIs(t, fn(ctx), server.shutdownErr)
}

func TestHTTPServer_ListenError(t *testing.T) {
	server := newFakeServer()
	server.listenErr = errors.New("address already in use")

	err := HTTPServer(server, time.Second)(context.Background())
	assert.ErrorIs(t, err, server.listenErr)
	assert.Zero(t, server.shutdowns.Load())
}

func TestHTTPServer_ExternalClose(t *testing.T) {
	server := newFakeServer()
	close(server.stop)

	err := HTTPServer(server, time.Second)(context.Background())
	assert.NoError(t, err)
}

func TestHTTPServer_Nil(t *testing.T) {
	assert.ErrorIs(t, HTTPServer(nil, 0)(context.Background()), ErrNilServer)
}
