package books

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xmetrics"
)

// ErrorBody 失败响应体。
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Controller 图书 HTTP 控制器。
//
// 错误通过 c.Error 上报给拦截器，同时写出 [ErrorBody]。
type Controller struct {
	svc     *Service
	logger  xlog.Logger
	metrics *controllerMetrics
}

// NewController 创建控制器。
func NewController(svc *Service, reg *xmetrics.Registry) (*Controller, error) {
	if svc == nil {
		return nil, errors.New("books: service is required")
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}
	m, err := newControllerMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Controller{svc: svc, logger: svc.logger, metrics: m}, nil
}

// Register 在 r 上注册 /books 路由。
func (c *Controller) Register(r gin.IRouter) {
	g := r.Group("/books")
	g.GET("", c.List)
	g.GET("/:id", c.Get)
	g.POST("", c.Create)
	g.PUT("/:id", c.Update)
	g.DELETE("/:id", c.Delete)
	g.DELETE("", c.DeleteByQuery)
}

// List GET /books
func (c *Controller) List(gc *gin.Context) {
	const op = "getBooks"
	start := time.Now()
	ctx := gc.Request.Context()

	books, err := c.svc.List(ctx)
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	c.observe(ctx, op, http.MethodGet, start)
	c.logger.Info(ctx, "Fetched all books successfully", xlog.Context("BooksController"))
	gc.JSON(http.StatusOK, books)
}

// Get GET /books/:id
func (c *Controller) Get(gc *gin.Context) {
	const op = "getBook"
	start := time.Now()
	ctx := gc.Request.Context()

	id, err := parseID(gc.Param("id"))
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	b, err := c.svc.Get(ctx, id)
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	c.observe(ctx, op, http.MethodGet, start)
	gc.JSON(http.StatusOK, b)
}

// Create POST /books
func (c *Controller) Create(gc *gin.Context) {
	const op = "addBook"
	start := time.Now()
	ctx := gc.Request.Context()

	var in Input
	if err := gc.ShouldBindJSON(&in); err != nil {
		c.fail(gc, op, invalidf("%v", err))
		return
	}
	b, err := c.svc.Create(ctx, in)
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	c.observe(ctx, op, http.MethodPost, start)
	gc.JSON(http.StatusCreated, b)
}

// Update PUT /books/:id
func (c *Controller) Update(gc *gin.Context) {
	const op = "updateBook"
	start := time.Now()
	ctx := gc.Request.Context()

	id, err := parseID(gc.Param("id"))
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	var in Input
	if err := gc.ShouldBindJSON(&in); err != nil {
		c.fail(gc, op, invalidf("%v", err))
		return
	}
	b, err := c.svc.Update(ctx, id, in)
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	c.observe(ctx, op, http.MethodPut, start)
	gc.JSON(http.StatusOK, b)
}

// Delete DELETE /books/:id
func (c *Controller) Delete(gc *gin.Context) {
	c.delete(gc, gc.Param("id"))
}

// DeleteByQuery DELETE /books?bookID=<id>
func (c *Controller) DeleteByQuery(gc *gin.Context) {
	c.delete(gc, gc.Query("bookID"))
}

func (c *Controller) delete(gc *gin.Context, rawID string) {
	const op = "deleteBook"
	start := time.Now()
	ctx := gc.Request.Context()

	id, err := parseID(rawID)
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	res, err := c.svc.Delete(ctx, id)
	if err != nil {
		c.fail(gc, op, err)
		return
	}
	c.observe(ctx, op, http.MethodDelete, start)
	gc.JSON(http.StatusOK, res)
}

// =============================================================================
// 辅助
// =============================================================================

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, invalidf("invalid book id %q", raw)
	}
	return id, nil
}

func (c *Controller) observe(ctx context.Context, op, method string, start time.Time) {
	if err := c.metrics.duration.Observe(time.Since(start).Seconds(), op, method); err != nil {
		c.logger.Warn(ctx, "Failed to record book metric", xlog.Err(err))
	}
}

// fail 记录错误指标，上报错误并写出响应
func (c *Controller) fail(gc *gin.Context, op string, err error) {
	if mErr := c.metrics.errors.Inc(op, errorType(err)); mErr != nil {
		c.logger.Warn(gc.Request.Context(), "Failed to record book metric", xlog.Err(mErr))
	}
	_ = gc.Error(err)

	status := http.StatusInternalServerError
	msg := "Internal server error"
	var se *StatusError
	if errors.As(err, &se) {
		status = se.HTTPStatus()
		msg = err.Error()
	}
	gc.JSON(status, ErrorBody{StatusCode: status, Message: msg})
}
