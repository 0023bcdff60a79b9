package system

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xmetrics"
)

// 控制器指标
const (
	MetricOperationDuration = "system_operation_duration_seconds"
	MetricRequestErrors     = "system_request_errors_total"
)

// OperationBuckets 控制器操作耗时分桶（秒）
var OperationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5}

// 失败响应消息
const (
	MsgInfoFailed        = "Failed to fetch system information"
	MsgDiagnosticsFailed = "Failed to run system diagnostics"
)

// ErrNilRegistry 创建控制器时指标注册表为 nil
var ErrNilRegistry = errors.New("system: registry is required")

// errBadRequest 诊断请求体无法解析
var errBadRequest = errors.New("system: invalid diagnostics request")

// ErrorBody 失败响应体。
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Controller 系统 HTTP 控制器。
type Controller struct {
	svc      *Service
	logger   xlog.Logger
	duration *xmetrics.Histogram
	errors   *xmetrics.Counter
}

// NewController 创建控制器。
func NewController(svc *Service, reg *xmetrics.Registry) (*Controller, error) {
	if svc == nil {
		return nil, errors.New("system: service is required")
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}
	duration, err := reg.CreateHistogram(MetricOperationDuration, "Duration of system operations in seconds",
		OperationBuckets, "operation", "method")
	if err != nil {
		return nil, err
	}
	errs, err := reg.CreateCounter(MetricRequestErrors, "Total number of errors in system requests",
		"operation", "error_type")
	if err != nil {
		return nil, err
	}
	return &Controller{svc: svc, logger: svc.logger, duration: duration, errors: errs}, nil
}

// Register 在 r 上注册 /system 路由。
func (c *Controller) Register(r gin.IRouter) {
	g := r.Group("/system")
	g.GET("/info", c.Info)
	g.POST("/diagnostics", c.Diagnostics)
}

// Info GET /system/info
func (c *Controller) Info(gc *gin.Context) {
	const op = "getSystemInfo"
	start := time.Now()
	ctx := gc.Request.Context()

	info, err := c.svc.Info(ctx)
	if err != nil {
		c.fail(gc, op, http.StatusInternalServerError, MsgInfoFailed, err)
		return
	}
	c.observe(ctx, op, http.MethodGet, start)
	c.logger.Info(ctx, "System information fetched successfully", xlog.Context("SystemController"))
	gc.JSON(http.StatusOK, info)
}

// Diagnostics POST /system/diagnostics，请求体可省略。
func (c *Controller) Diagnostics(gc *gin.Context) {
	const op = "runDiagnostics"
	start := time.Now()
	ctx := gc.Request.Context()

	var req DiagnosticsRequest
	if err := gc.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.fail(gc, op, http.StatusBadRequest, http.StatusText(http.StatusBadRequest),
			errors.Join(errBadRequest, err))
		return
	}
	res, err := c.svc.RunDiagnostics(ctx, req)
	if err != nil {
		c.fail(gc, op, http.StatusInternalServerError, MsgDiagnosticsFailed, err)
		return
	}
	c.observe(ctx, op, http.MethodPost, start)
	c.logger.Info(ctx, "System diagnostics completed", xlog.Context("SystemController"))
	gc.JSON(http.StatusOK, res)
}

func (c *Controller) observe(ctx context.Context, op, method string, start time.Time) {
	if err := c.duration.Observe(time.Since(start).Seconds(), op, method); err != nil {
		c.logger.Warn(ctx, "Failed to record system metric", xlog.Err(err))
	}
}

func (c *Controller) fail(gc *gin.Context, op string, status int, msg string, err error) {
	ctx := gc.Request.Context()
	if mErr := c.errors.Inc(op, errorType(err)); mErr != nil {
		c.logger.Warn(ctx, "Failed to record system metric", xlog.Err(mErr))
	}
	c.logger.Error(ctx, msg, xlog.Err(err), xlog.Context("SystemController"))
	_ = gc.Error(&statusError{status: status, err: err})
	gc.JSON(status, ErrorBody{StatusCode: status, Message: msg})
}

// statusError 携带 HTTP 状态码，供请求拦截器读取
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string   { return e.err.Error() }
func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

func errorType(err error) string {
	if errors.Is(err, errBadRequest) {
		return "bad_request"
	}
	return "internal"
}
