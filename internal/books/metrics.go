package books

import (
	"github.com/omeyang/xscaffold/pkg/observability/xmetrics"
)

// 服务层指标
const (
	MetricCreated        = "books_created_total"
	MetricUpdated        = "books_updated_total"
	MetricDeleted        = "books_deleted_total"
	MetricRetrieved      = "books_retrieved_total"
	MetricCollectionSize = "books_collection_size"
)

// 控制器指标
const (
	MetricOperationDuration = "book_operation_duration_seconds"
	MetricRequestErrors     = "book_request_errors_total"
)

// 检索类型，books_retrieved_total 的 operation 标签
const (
	retrieveSingle     = "single"
	retrieveCollection = "collection"
)

// OperationBuckets 控制器操作耗时分桶（秒）
var OperationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5}

type serviceMetrics struct {
	created   *xmetrics.Counter
	updated   *xmetrics.Counter
	deleted   *xmetrics.Counter
	retrieved *xmetrics.Counter
	size      *xmetrics.Gauge
}

func newServiceMetrics(reg *xmetrics.Registry) (*serviceMetrics, error) {
	var (
		m   serviceMetrics
		err error
	)
	if m.created, err = reg.CreateCounter(MetricCreated, "Total number of books created"); err != nil {
		return nil, err
	}
	if m.updated, err = reg.CreateCounter(MetricUpdated, "Total number of books updated"); err != nil {
		return nil, err
	}
	if m.deleted, err = reg.CreateCounter(MetricDeleted, "Total number of books deleted"); err != nil {
		return nil, err
	}
	if m.retrieved, err = reg.CreateCounter(MetricRetrieved, "Total number of book retrieval operations", "operation"); err != nil {
		return nil, err
	}
	if m.size, err = reg.CreateGauge(MetricCollectionSize, "Current number of books in the collection"); err != nil {
		return nil, err
	}
	return &m, nil
}

type controllerMetrics struct {
	duration *xmetrics.Histogram
	errors   *xmetrics.Counter
}

func newControllerMetrics(reg *xmetrics.Registry) (*controllerMetrics, error) {
	duration, err := reg.CreateHistogram(MetricOperationDuration, "Duration of book operations in seconds",
		OperationBuckets, "operation", "method")
	if err != nil {
		return nil, err
	}
	errs, err := reg.CreateCounter(MetricRequestErrors, "Total number of errors in book requests",
		"operation", "error_type")
	if err != nil {
		return nil, err
	}
	return &controllerMetrics{duration: duration, errors: errs}, nil
}
