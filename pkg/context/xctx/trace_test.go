package xctx_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xscaffold/pkg/context/xctx"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestTraceID_FromSpan(t *testing.T) {
	ctx := spanContext(t)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", xctx.TraceID(ctx))
	assert.Equal(t, "00f067aa0ba902b7", xctx.SpanID(ctx))
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, xctx.TraceID(context.Background()))
	assert.Empty(t, xctx.SpanID(context.Background()))
	//nolint:staticcheck // 验证 nil ctx 容错
	assert.Empty(t, xctx.TraceID(nil))
}

func TestRequestID(t *testing.T) {
	ctx, err := xctx.WithRequestID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", xctx.RequestID(ctx))

	got, err := xctx.RequireRequestID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-1", got)

	_, err = xctx.RequireRequestID(context.Background())
	assert.ErrorIs(t, err, xctx.ErrMissingRequestID)

	_, err = xctx.WithRequestID(context.Background(), "")
	assert.ErrorIs(t, err, xctx.ErrEmptyRequestID)
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id, err := xctx.EnsureRequestID(context.Background())
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, id, xctx.RequestID(ctx))

	// 已存在时保持不变
	ctx2, id2, err := xctx.EnsureRequestID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, ctx, ctx2)
}

func TestAppendTraceAttrs(t *testing.T) {
	keys := func(attrs []slog.Attr) []string {
		out := make([]string, 0, len(attrs))
		for _, a := range attrs {
			out = append(out, a.Key)
		}
		return out
	}

	t.Run("no_span", func(t *testing.T) {
		attrs := xctx.AppendTraceAttrs(nil, context.Background())
		assert.Empty(t, attrs)
	})

	t.Run("span_and_request", func(t *testing.T) {
		ctx, err := xctx.WithRequestID(spanContext(t), "req-9")
		require.NoError(t, err)
		attrs := xctx.AppendTraceAttrs(nil, ctx)
		assert.Equal(t, []string{xctx.KeyTraceID, xctx.KeySpanID, xctx.KeyRequestID}, keys(attrs))
	})
}
