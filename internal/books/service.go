package books

import (
	"context"
	"slices"
	"sync"

	"github.com/omeyang/xscaffold/pkg/observability/xlog"
	"github.com/omeyang/xscaffold/pkg/observability/xmetrics"
	"github.com/omeyang/xscaffold/pkg/observability/xspan"
)

// Component 服务层 span 与日志使用的组件名
const Component = "BooksService"

// Service 图书目录服务，数据保存在内存中，方法可并发调用。
//
// 每个操作都经过 xspan 包装：一个以操作名命名的子 span（component.name 为 BooksService）、开始/结束日志与操作指标。
type Service struct {
	tracer  *xspan.Tracer
	logger  xlog.Logger
	metrics *serviceMetrics

	mu    sync.RWMutex
	books []Book

	get    func(context.Context, int) (Book, error)
	create func(context.Context, Input) (Book, error)
	update func(context.Context, UpdateRequest) (Book, error)
	remove func(context.Context, int) (Deleted, error)
}

// NewService 创建预置样例数据的服务。
func NewService(tracer *xspan.Tracer, reg *xmetrics.Registry) (*Service, error) {
	if tracer == nil {
		return nil, ErrNilTracer
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}
	m, err := newServiceMetrics(reg)
	if err != nil {
		return nil, err
	}
	s := &Service{
		tracer:  tracer,
		logger:  tracer.Logger(),
		metrics: m,
		books:   seed(),
	}
	s.get = xspan.Wrap(tracer, Component, "getBook", s.doGet)
	s.create = xspan.Wrap(tracer, Component, "addBook", s.doCreate)
	s.update = xspan.Wrap(tracer, Component, "updateBook", s.doUpdate)
	s.remove = xspan.Wrap(tracer, Component, "deleteBook", s.doDelete)

	s.record(context.Background(), m.size.Set(float64(len(s.books))))
	return s, nil
}

// List 返回全部图书。
func (s *Service) List(ctx context.Context) ([]Book, error) {
	return xspan.Call(ctx, s.tracer, Component, "getBooks", s.doList)
}

// Get 按 id 查找图书，不存在时返回 ErrNotFound。
func (s *Service) Get(ctx context.Context, id int) (Book, error) {
	return s.get(ctx, id)
}

// Create 新增图书。in.ID 为 0 时分配当前最大 id + 1。
func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	return s.create(ctx, in)
}

// Update 覆盖指定 id 的图书内容。
func (s *Service) Update(ctx context.Context, id int, in Input) (Book, error) {
	return s.update(ctx, UpdateRequest{ID: id, Input: in})
}

// Delete 删除指定 id 的图书。
func (s *Service) Delete(ctx context.Context, id int) (Deleted, error) {
	return s.remove(ctx, id)
}

// Len 返回当前图书数量。
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// =============================================================================
// 操作实现
// =============================================================================

func (s *Service) doList(ctx context.Context) ([]Book, error) {
	s.record(ctx, s.metrics.retrieved.Inc(retrieveCollection))

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books), nil
}

func (s *Service) doGet(ctx context.Context, id int) (Book, error) {
	s.record(ctx, s.metrics.retrieved.Inc(retrieveSingle))

	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.books[i], nil
	}
	return Book{}, ErrNotFound
}

func (s *Service) doCreate(ctx context.Context, in Input) (Book, error) {
	if err := in.validate(); err != nil {
		return Book{}, err
	}

	s.mu.Lock()
	id := in.ID
	if id == 0 {
		id = s.nextID()
	} else if s.indexOf(id) >= 0 {
		s.mu.Unlock()
		return Book{}, ErrConflict
	}
	b := Book{ID: id, Title: in.Title, Description: in.Description, Author: in.Author}
	s.books = append(s.books, b)
	size := len(s.books)
	s.mu.Unlock()

	s.record(ctx, s.metrics.created.Inc())
	s.record(ctx, s.metrics.size.Set(float64(size)))
	return b, nil
}

func (s *Service) doUpdate(ctx context.Context, req UpdateRequest) (Book, error) {
	if err := req.Input.validate(); err != nil {
		return Book{}, err
	}

	s.mu.Lock()
	i := s.indexOf(req.ID)
	if i < 0 {
		s.mu.Unlock()
		return Book{}, ErrNotFound
	}
	b := Book{ID: req.ID, Title: req.Input.Title, Description: req.Input.Description, Author: req.Input.Author}
	s.books[i] = b
	s.mu.Unlock()

	s.record(ctx, s.metrics.updated.Inc())
	return b, nil
}

func (s *Service) doDelete(ctx context.Context, id int) (Deleted, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Deleted{}, ErrNotFound
	}
	s.books = slices.Delete(s.books, i, i+1)
	size := len(s.books)
	s.mu.Unlock()

	s.record(ctx, s.metrics.deleted.Inc())
	s.record(ctx, s.metrics.size.Set(float64(size)))
	return Deleted{Message: MsgDeleted}, nil
}

// indexOf 调用方持有锁
func (s *Service) indexOf(id int) int {
	return slices.IndexFunc(s.books, func(b Book) bool { return b.ID == id })
}

// nextID 调用方持有写锁
func (s *Service) nextID() int {
	next := 1
	for _, b := range s.books {
		if b.ID >= next {
			next = b.ID + 1
		}
	}
	return next
}

// record 指标写入失败只记录告警，不影响业务结果
func (s *Service) record(ctx context.Context, err error) {
	if err != nil {
		s.logger.Warn(ctx, "Failed to record book metric", xlog.Err(err), xlog.Context(Component))
	}
}
