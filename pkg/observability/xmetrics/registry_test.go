package xmetrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xscaffold/pkg/observability/xmetrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRegistry(t *testing.T, opts ...xmetrics.Option) *xmetrics.Registry {
	t.Helper()
	reg, err := xmetrics.NewRegistry(opts...)
	require.NoError(t, err)
	return reg
}

func snapshot(t *testing.T, reg *xmetrics.Registry) string {
	t.Helper()
	text, err := reg.Snapshot()
	require.NoError(t, err)
	return text
}

func TestCounter(t *testing.T) {
	reg := newRegistry(t)
	c, err := reg.CreateCounter("books_retrieved_total", "Books retrieved", "operation")
	require.NoError(t, err)

	require.NoError(t, c.Inc("list"))
	require.NoError(t, c.Add(2, "list"))
	require.NoError(t, c.Inc("get"))
	assert.ErrorIs(t, c.Add(-1, "get"), xmetrics.ErrNegativeCounter)

	text := snapshot(t, reg)
	assert.Contains(t, text, "# HELP books_retrieved_total Books retrieved")
	assert.Contains(t, text, "# TYPE books_retrieved_total counter")
	assert.Contains(t, text, `books_retrieved_total{operation="list"} 3`)
	assert.Contains(t, text, `books_retrieved_total{operation="get"} 1`)
}

func TestGauge(t *testing.T) {
	reg := newRegistry(t)
	g, err := reg.CreateGauge("books_collection_size", "Books in the catalog")
	require.NoError(t, err)

	require.NoError(t, g.Set(5))
	require.NoError(t, g.Inc())
	require.NoError(t, g.Dec())
	require.NoError(t, g.Dec())
	require.NoError(t, g.Add(0.5))

	assert.Contains(t, snapshot(t, reg), "books_collection_size 4.5")
}

func TestHistogram_DefaultBuckets(t *testing.T) {
	reg := newRegistry(t)
	h, err := reg.CreateHistogram("op_seconds", "Operation duration", nil, "operation")
	require.NoError(t, err)
	assert.Equal(t, xmetrics.DefaultBuckets(), h.Descriptor().Buckets)
	assert.Len(t, h.Descriptor().Buckets, 10)

	require.NoError(t, h.Observe(0.15, "get"))
	text := snapshot(t, reg)
	assert.Contains(t, text, "# TYPE op_seconds histogram")
	assert.Contains(t, text, `op_seconds_count{operation="get"} 1`)
	assert.Contains(t, text, `op_seconds_bucket{operation="get",le="+Inf"} 1`)
}

func TestSummary(t *testing.T) {
	reg := newRegistry(t)
	s, err := reg.CreateSummary("latency", "Latency", nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.9, 0.95, 0.99}, s.Descriptor().Percentiles)

	for i := 1; i <= 10; i++ {
		require.NoError(t, s.Observe(float64(i)))
	}
	text := snapshot(t, reg)
	assert.Contains(t, text, "# TYPE latency summary")
	assert.Contains(t, text, `latency{quantile="0.5"}`)
	assert.Contains(t, text, "latency_count 10")

	_, err = reg.CreateSummary("bad", "Bad", []float64{1.5})
	assert.ErrorIs(t, err, xmetrics.ErrInvalidPercentile)
}

func TestDuplicateRegistration(t *testing.T) {
	reg := newRegistry(t)
	c, err := reg.CreateCounter("dup_total", "first")
	require.NoError(t, err)
	require.NoError(t, c.Inc())

	_, err = reg.CreateGauge("dup_total", "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, xmetrics.ErrDuplicateRegistration)
	var dre *xmetrics.DuplicateRegistrationError
	require.ErrorAs(t, err, &dre)
	assert.Equal(t, xmetrics.KindCounter, dre.Existing)

	// 原描述符与样本不受影响
	d, ok := reg.Descriptor("dup_total")
	require.True(t, ok)
	assert.Equal(t, "first", d.Help)
	assert.Contains(t, snapshot(t, reg), "dup_total 1")
}

func TestDuplicateRegistration_FromPrometheus(t *testing.T) {
	reg := newRegistry(t)
	reg.Registerer().MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "ext_total", Help: "h"}))

	_, err := reg.CreateCounter("ext_total", "h")
	assert.ErrorIs(t, err, xmetrics.ErrDuplicateRegistration)
	_, ok := reg.Descriptor("ext_total")
	assert.False(t, ok)
}

func TestLabelArity(t *testing.T) {
	reg := newRegistry(t)
	c, err := reg.CreateCounter("arity_total", "arity", "a", "b")
	require.NoError(t, err)

	err = c.Inc("only-one")
	require.Error(t, err)
	assert.ErrorIs(t, err, xmetrics.ErrLabelArity)
	var lae *xmetrics.LabelArityError
	require.ErrorAs(t, err, &lae)
	assert.Equal(t, 2, lae.Want)
	assert.Equal(t, 1, lae.Got)

	g, err := reg.CreateGauge("arity_gauge", "arity")
	require.NoError(t, err)
	assert.ErrorIs(t, g.Set(1, "extra"), xmetrics.ErrLabelArity)

	text := snapshot(t, reg)
	assert.NotContains(t, text, "arity_total")
	assert.NotContains(t, text, "arity_gauge")
}

func TestEmptyName(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.CreateCounter("", "help")
	assert.ErrorIs(t, err, xmetrics.ErrEmptyName)
}

func TestDefaultLabels(t *testing.T) {
	reg := newRegistry(t, xmetrics.WithDefaultLabels(map[string]string{"service": "books-api"}))
	c, err := reg.CreateCounter("c_total", "c", "op")
	require.NoError(t, err)
	require.NoError(t, c.Inc("get"))

	assert.Contains(t, snapshot(t, reg), `c_total{op="get",service="books-api"} 1`)
}

func TestProcessMetrics(t *testing.T) {
	reg := newRegistry(t, xmetrics.WithProcessMetrics("app_"))
	text := snapshot(t, reg)
	assert.Contains(t, text, "app_go_goroutines")
}

func TestDescriptors_Sorted(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.CreateGauge("b", "b")
	require.NoError(t, err)
	_, err = reg.CreateCounter("a_total", "a")
	require.NoError(t, err)

	descs := reg.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "a_total", descs[0].Name)
	assert.Equal(t, xmetrics.KindGauge, descs[1].Kind)
}

func TestMeterProvider_ExportsIntoRegistry(t *testing.T) {
	reg := newRegistry(t)
	mp, err := reg.MeterProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	again, err := reg.MeterProvider()
	require.NoError(t, err)
	assert.Same(t, mp, again)

	counter, err := mp.Meter("test").Int64Counter("demo.requests")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	assert.Contains(t, snapshot(t, reg), "demo_requests")
}

type failingCollector struct {
	desc *prometheus.Desc
}

func (c failingCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c failingCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.NewInvalidMetric(c.desc, errors.New("scrape broke"))
}

func TestSnapshot_GatherError(t *testing.T) {
	reg := newRegistry(t)
	reg.Registerer().MustRegister(failingCollector{
		desc: prometheus.NewDesc("broken", "broken collector", nil, nil),
	})

	_, err := reg.Snapshot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape broke")
}
