package xspan

import (
	"reflect"
	"strconv"
	"strings"
)

// =============================================================================
// 入参捕获
// =============================================================================

// capturedFields 复合类型入参只记录这几个字段，避免把整个对象写进 span
var capturedFields = []string{"id", "name", "title"}

// CaptureArgs 把入参转换为 span 属性。
//
// 基础类型记录为 arg.N；结构体、指针、string 键的 map 只记录
// arg.N.id、arg.N.name、arg.N.title 中存在的字段。其余类型忽略。
// 结构体字段按字段名（忽略大小写）或 json tag 匹配。
func CaptureArgs(args ...any) []Attr {
	if len(args) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(args))
	for i, arg := range args {
		attrs = captureArg(attrs, "arg."+strconv.Itoa(i), arg)
	}
	return attrs
}

func captureArg(dst []Attr, key string, arg any) []Attr {
	if arg == nil {
		return dst
	}
	rv, ok := indirect(reflect.ValueOf(arg))
	if !ok {
		return dst
	}
	if v, ok := primitive(rv); ok {
		return append(dst, Attr{Key: key, Value: v})
	}

	switch rv.Kind() {
	case reflect.Struct:
		for _, name := range capturedFields {
			if fv, found := structField(rv, name); found {
				if v, ok := primitive(fv); ok {
					dst = append(dst, Attr{Key: key + "." + name, Value: v})
				}
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return dst
		}
		for _, name := range capturedFields {
			mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if !mv.IsValid() {
				continue
			}
			if iv, ok := indirect(mv); ok {
				if v, ok := primitive(iv); ok {
					dst = append(dst, Attr{Key: key + "." + name, Value: v})
				}
			}
		}
	default:
	}
	return dst
}

// indirect 解开指针与接口，nil 时返回 false
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func primitive(rv reflect.Value) (any, bool) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return rv.String(), true
	default:
		return nil, false
	}
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name || (tag == "" && strings.EqualFold(f.Name, name)) {
			fv, ok := indirect(rv.Field(i))
			return fv, ok
		}
	}
	return reflect.Value{}, false
}
