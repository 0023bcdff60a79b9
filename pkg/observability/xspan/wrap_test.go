package xspan_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xspan"
)

type book struct {
	ID     int
	Title  string
	Author string
}

type fixture struct {
	tracer *xspan.Tracer
	spans  *tracetest.InMemoryExporter
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	spans := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	var logs bytes.Buffer
	logger, cleanup, err := xlog.New().
		SetOutput(&logs).
		SetFormat("json").
		SetLevel(xlog.LevelDebug).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })

	tracer, err := xspan.NewTracer(logger, xspan.WithTracerProvider(tp), xspan.WithMeterProvider(mp))
	require.NoError(t, err)
	return &fixture{tracer: tracer, spans: spans, reader: reader, logs: &logs}
}

func (f *fixture) logLines(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(bytes.NewReader(f.logs.Bytes()))
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func attrOf(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewTracer_NilLogger(t *testing.T) {
	_, err := xspan.NewTracer(nil)
	assert.ErrorIs(t, err, xspan.ErrNilLogger)
}

func TestWrap_Success(t *testing.T) {
	f := newFixture(t)
	get := xspan.Wrap(f.tracer, "BooksService", "get", func(_ context.Context, id int) (book, error) {
		return book{ID: id, Title: "Dune"}, nil
	})

	got, err := get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, got.ID)

	spans := f.spans.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "get", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)
	v, ok := attrOf(span, xspan.AttrComponentName)
	require.True(t, ok)
	assert.Equal(t, "BooksService", v.AsString())
	v, ok = attrOf(span, xspan.AttrOperationName)
	require.True(t, ok)
	assert.Equal(t, "get", v.AsString())
	v, ok = attrOf(span, "arg.0")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.AsInt64())

	lines := f.logLines(t)
	require.Len(t, lines, 2)
	assert.Equal(t, "Executing get", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "BooksService", lines[0]["context"])
	assert.Equal(t, "Successfully executed get", lines[1]["msg"])
	assert.Equal(t, "DEBUG", lines[1]["level"])
	// 日志关联到包装产生的 span
	assert.Equal(t, span.SpanContext.TraceID().String(), lines[0]["trace_id"])
	assert.Equal(t, span.SpanContext.SpanID().String(), lines[0]["span_id"])
}

func TestWrap_ErrorReturnedUnchanged(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	update := xspan.Wrap(f.tracer, "BooksService", "update", func(context.Context, book) (book, error) {
		return book{}, boom
	})

	_, err := update(context.Background(), book{ID: 1, Title: "T", Author: "A"})
	require.Error(t, err)
	assert.True(t, err == boom, "error must be returned as the same value") //nolint:errorlint // 同一值

	span := f.spans.GetSpans()[0]
	assert.Equal(t, codes.Error, span.Status.Code)
	assert.Equal(t, "boom", span.Status.Description)
	require.NotEmpty(t, span.Events)
	assert.Equal(t, "exception", span.Events[0].Name)

	_, ok := attrOf(span, "arg.0.id")
	assert.True(t, ok)
	_, ok = attrOf(span, "arg.0.title")
	assert.True(t, ok)
	_, ok = attrOf(span, "arg.0.author")
	assert.False(t, ok)

	lines := f.logLines(t)
	require.Len(t, lines, 2)
	assert.Equal(t, "Error executing update: boom", lines[1]["msg"])
	assert.Equal(t, "BooksService", lines[1]["context"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestWrap_PanicRepanics(t *testing.T) {
	f := newFixture(t)
	del := xspan.Wrap(f.tracer, "BooksService", "delete", func(context.Context, string) (struct{}, error) {
		panic("kaboom")
	})

	assert.PanicsWithValue(t, "kaboom", func() {
		_, _ = del(context.Background(), "b-1")
	})

	spans := f.spans.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "panic: kaboom", spans[0].Status.Description)

	lines := f.logLines(t)
	require.Len(t, lines, 2)
	assert.Equal(t, "Error executing delete: panic: kaboom", lines[1]["msg"])
	assert.NotEmpty(t, lines[1]["stack"])
}

func TestWrap_NestedSpansFollowContext(t *testing.T) {
	f := newFixture(t)
	inner := xspan.Wrap(f.tracer, "Repo", "load", func(_ context.Context, id int) (int, error) {
		return id, nil
	})
	outer := xspan.Wrap(f.tracer, "Service", "get", func(ctx context.Context, id int) (int, error) {
		return inner(ctx, id)
	})

	_, err := outer(context.Background(), 1)
	require.NoError(t, err)

	spans := f.spans.GetSpans()
	require.Len(t, spans, 2)
	// 内层先结束
	assert.Equal(t, "load", spans[0].Name)
	assert.Equal(t, "get", spans[1].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

func TestWrap_Options(t *testing.T) {
	f := newFixture(t)
	fn := xspan.Wrap(f.tracer, "C", "op", func(context.Context, int) (int, error) {
		return 0, errors.New("quiet")
	},
		xspan.WithSpanName("custom"),
		xspan.WithLogStart(false),
		xspan.WithLogSuccess(false),
		xspan.WithLogError(false),
		xspan.WithCaptureArgs(false),
		xspan.WithAttrs(xspan.Attr{Key: "tenant", Value: "t1"}),
	)

	_, err := fn(context.Background(), 5)
	require.Error(t, err)

	span := f.spans.GetSpans()[0]
	assert.Equal(t, "custom", span.Name)
	_, ok := attrOf(span, "arg.0")
	assert.False(t, ok)
	v, ok := attrOf(span, "tenant")
	require.True(t, ok)
	assert.Equal(t, "t1", v.AsString())
	assert.Empty(t, f.logs.String())
}

func TestCallAndDo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := xspan.Call(ctx, f.tracer, "BooksService", "count", func(context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	sentinel := errors.New("fail")
	err = xspan.Do(ctx, f.tracer, "BooksService", "reset", func(context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	spans := f.spans.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

func TestWrap_NilTracerRunsPlain(t *testing.T) {
	fn := xspan.Wrap(nil, "C", "op", func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	})
	got, err := fn(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 8, got)
}

func TestWrap_RecordsOperationMetrics(t *testing.T) {
	f := newFixture(t)
	ok := xspan.Wrap(f.tracer, "BooksService", "list", func(context.Context, int) (int, error) { return 0, nil })
	bad := xspan.Wrap(f.tracer, "BooksService", "list", func(context.Context, int) (int, error) {
		return 0, errors.New("x")
	})
	_, _ = ok(context.Background(), 0)
	_, _ = ok(context.Background(), 0)
	_, _ = bad(context.Background(), 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "xscaffold.operation.total" {
				continue
			}
			sum, isSum := m.Data.(metricdata.Sum[int64])
			require.True(t, isSum)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				counts[status.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), counts["ok"])
	assert.Equal(t, int64(1), counts["error"])
}
