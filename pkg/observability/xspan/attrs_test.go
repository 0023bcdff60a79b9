package xspan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureBook struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type captureTagged struct {
	Key  string `json:"name"`
	Name string `json:"-"`
}

func attrMap(attrs []Attr) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestCaptureArgs_Primitives(t *testing.T) {
	got := attrMap(CaptureArgs("abc", 7, uint8(2), 1.5, true))
	assert.Equal(t, map[string]any{
		"arg.0": "abc",
		"arg.1": int64(7),
		"arg.2": uint64(2),
		"arg.3": 1.5,
		"arg.4": true,
	}, got)
}

func TestCaptureArgs_Struct(t *testing.T) {
	book := captureBook{ID: 3, Title: "Dune", Author: "Herbert"}

	assert.Equal(t, map[string]any{"arg.0.id": int64(3), "arg.0.title": "Dune"}, attrMap(CaptureArgs(book)))
	assert.Equal(t, map[string]any{"arg.0.id": int64(3), "arg.0.title": "Dune"}, attrMap(CaptureArgs(&book)))

	// json tag 优先于字段名，"-" 不参与匹配
	assert.Equal(t, map[string]any{"arg.0.name": "k"}, attrMap(CaptureArgs(captureTagged{Key: "k", Name: "n"})))
}

func TestCaptureArgs_Map(t *testing.T) {
	got := attrMap(CaptureArgs(map[string]any{"id": "b-1", "name": "x", "secret": "s"}))
	assert.Equal(t, map[string]any{"arg.0.id": "b-1", "arg.0.name": "x"}, got)

	assert.Empty(t, CaptureArgs(map[int]string{1: "id"}))
}

func TestCaptureArgs_Ignored(t *testing.T) {
	var nilBook *captureBook
	assert.Empty(t, CaptureArgs(nil, nilBook, []string{"a"}, func() {}))
	assert.Nil(t, CaptureArgs())
}
