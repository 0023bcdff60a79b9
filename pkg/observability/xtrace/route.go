package xtrace

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRouteCacheSize 路由归一化缓存的默认容量
const DefaultRouteCacheSize = 1024

var (
	// 24 位十六进制（ObjectId 风格）要先于纯数字替换，否则数字前缀会被单独替换
	objectIDSegment = regexp.MustCompile(`/[0-9a-fA-F]{24}\b`)
	numericSegment  = regexp.MustCompile(`/\d+\b`)
)

// NormalizePath 把路径中的动态段替换为 :id，降低指标标签基数。
//
//	/books/42                        → /books/:id
//	/books/507f1f77bcf86cd799439011  → /books/:id
//	/v2/books                        → /v2/books
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	path = objectIDSegment.ReplaceAllString(path, "/:id")
	return numericSegment.ReplaceAllString(path, "/:id")
}

// RouteNormalizer 带 LRU 缓存的 [NormalizePath]，并发安全。
type RouteNormalizer struct {
	cache *lru.Cache[string, string]
}

// NewRouteNormalizer 创建归一化器，size <= 0 时使用 DefaultRouteCacheSize。
func NewRouteNormalizer(size int) (*RouteNormalizer, error) {
	if size <= 0 {
		size = DefaultRouteCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &RouteNormalizer{cache: cache}, nil
}

// Normalize 返回 path 的归一化结果。
func (n *RouteNormalizer) Normalize(path string) string {
	if route, ok := n.cache.Get(path); ok {
		return route
	}
	route := NormalizePath(path)
	n.cache.Add(path, route)
	return route
}

// Len 返回缓存条目数。
func (n *RouteNormalizer) Len() int {
	return n.cache.Len()
}
