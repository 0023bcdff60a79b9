package xsampling

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestAlwaysNever(t *testing.T) {
	ctx := context.Background()
	assert.True(t, Always().ShouldSample(ctx))
	assert.False(t, Never().ShouldSample(ctx))
	assert.Same(t, Always(), Always())
}

func TestKeyBasedSampler_Validation(t *testing.T) {
	for _, rate := range []float64{-0.1, 2, math.NaN()} {
		_, err := NewKeyBasedSampler(rate, TraceIDKey)
		require.ErrorIs(t, err, ErrInvalidRate, "rate=%v", rate)
	}
	_, err := NewKeyBasedSampler(0.5, nil)
	require.ErrorIs(t, err, ErrNilKeyFunc)
	_, err = NewKeyBasedSampler(0.5, TraceIDKey, nil)
	require.ErrorIs(t, err, ErrNilOption)
}

func TestKeyBasedSampler_Consistent(t *testing.T) {
	key := "4bf92f3577b34da6a3ce929d0e0e4736"
	s, err := NewKeyBasedSampler(0.5, func(context.Context) string { return key })
	require.NoError(t, err)

	first := s.ShouldSample(context.Background())
	for range 50 {
		assert.Equal(t, first, s.ShouldSample(context.Background()))
	}
	assert.InDelta(t, 0.5, s.Rate(), 0)
}

func TestKeyBasedSampler_Distribution(t *testing.T) {
	s, err := NewKeyBasedSampler(0.2, TraceIDKey)
	require.NoError(t, err)

	const n = 20000
	hits := 0
	for i := range n {
		ctx := ContextWithTraceID(context.Background(), fmt.Sprintf("trace-%d", i))
		if s.ShouldSample(ctx) {
			hits++
		}
	}
	assert.InDelta(t, 0.2, float64(hits)/n, 0.03)
}

func TestKeyBasedSampler_EmptyKey(t *testing.T) {
	var empty atomic.Int64
	s, err := NewKeyBasedSampler(0.5, TraceIDKey, WithOnEmptyKey(func() { empty.Add(1) }))
	require.NoError(t, err)

	s.ShouldSample(context.Background())
	//nolint:staticcheck // nil ctx 与空 key 同等处理
	s.ShouldSample(nil)
	assert.Equal(t, int64(2), empty.Load())
}

func TestTraceIDKey(t *testing.T) {
	assert.Empty(t, TraceIDKey(context.Background()))
	assert.Equal(t, "abc", TraceIDKey(ContextWithTraceID(context.Background(), "abc")))
	assert.Equal(t, context.Background(), ContextWithTraceID(context.Background(), ""))

	tid := trace.TraceID{1, 2, 3}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: trace.SpanID{1}})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	assert.Equal(t, tid.String(), TraceIDKey(ctx))
}

func TestOTelSampler(t *testing.T) {
	ts, err := trace.ParseTraceState("vendor=value")
	require.NoError(t, err)
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{9},
		SpanID:     trace.SpanID{9},
		TraceState: ts,
	})
	params := sdktrace.SamplingParameters{
		ParentContext: trace.ContextWithSpanContext(context.Background(), parent),
		TraceID:       trace.TraceID{9},
		Name:          "op",
	}

	always := OTelSampler(Always(), "always")
	res := always.ShouldSample(params)
	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
	assert.Equal(t, "vendor=value", res.Tracestate.String())
	assert.Equal(t, "always", always.Description())

	assert.Equal(t, sdktrace.Drop, OTelSampler(Never(), "").ShouldSample(params).Decision)
	assert.Equal(t, "xsampling", OTelSampler(nil, "").Description())
}

func TestOTelSampler_KeyedByPendingTraceID(t *testing.T) {
	var seen string
	ks, err := NewKeyBasedSampler(0.5, func(ctx context.Context) string {
		seen = TraceIDKey(ctx)
		return seen
	})
	require.NoError(t, err)

	tid := trace.TraceID{0xab, 0xcd}
	OTelSampler(ks, "ratio").ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       tid,
	})
	assert.Equal(t, tid.String(), seen)
}
