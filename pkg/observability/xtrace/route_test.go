package xtrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/books", "/books"},
		{"/books/42", "/books/:id"},
		{"/books/42/reviews/7", "/books/:id/reviews/:id"},
		{"/books/507f1f77bcf86cd799439011", "/books/:id"},
		{"/books/507F1F77BCF86CD799439011/cover", "/books/:id/cover"},
		{"/v2/books", "/v2/books"},
		{"/books/123abc", "/books/123abc"},
		{"/system/info", "/system/info"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), "path=%q", tt.in)
	}
}

func TestRouteNormalizer_Cache(t *testing.T) {
	n, err := NewRouteNormalizer(2)
	require.NoError(t, err)

	assert.Equal(t, "/books/:id", n.Normalize("/books/1"))
	assert.Equal(t, "/books/:id", n.Normalize("/books/1"))
	assert.Equal(t, 1, n.Len())

	n.Normalize("/books/2")
	n.Normalize("/books/3")
	assert.Equal(t, 2, n.Len(), "LRU 容量受限")

	d, err := NewRouteNormalizer(0)
	require.NoError(t, err)
	assert.Equal(t, "/a/:id", d.Normalize("/a/9"))
}

func TestHandlerNameParts(t *testing.T) {
	tests := []struct {
		name, class, method string
	}{
		{"github.com/omeyang/xscaffold/internal/books.(*Controller).List-fm", "books.Controller", "List"},
		{"github.com/omeyang/xscaffold/internal/system.(*Controller).Info-fm", "system.Controller", "Info"},
		{"main.healthz", "main", "healthz"},
		{"main.routes.func1", "main", "routes.func1"},
		{"pkg.Handler.Serve", "pkg.Handler", "Serve"},
		{"noDot", "unknown", "noDot"},
	}
	for _, tt := range tests {
		class, method := HandlerNameParts(tt.name)
		assert.Equal(t, tt.class, class, tt.name)
		assert.Equal(t, tt.method, method, tt.name)
	}
}
