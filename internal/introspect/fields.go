// Package introspect enumerates and serializes the exported fields of
// component and cosmos state through a single reflective walk, so that
// editors, save files and checksums all see exactly the same data.
package introspect

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var ErrUnsupportedKind = errors.New("introspect: unsupported kind")

// ForEachField calls fn for every leaf field reachable from v through
// exported struct fields, array and slice elements and non-nil pointers.
// Names are dotted paths such as "Slots[1].ItemsInside[0]".
// Maps are reported as leaves.
func ForEachField(v any, fn func(path string, field reflect.Value)) {
	walk("", reflect.ValueOf(v), fn)
}

func walk(path string, v reflect.Value, fn func(string, reflect.Value)) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			fn(path, v)
			return
		}
		walk(path, v.Elem(), fn)
	case reflect.Struct:
		t := v.Type()
		visited := false
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			visited = true
			name := f.Name
			if f.Anonymous {
				walk(path, v.Field(i), fn)
				continue
			}
			if path != "" {
				name = path + "." + name
			}
			walk(name, v.Field(i), fn)
		}
		if !visited {
			fn(path, v)
		}
	case reflect.Array, reflect.Slice:
		if v.Kind() == reflect.Slice && v.Len() == 0 {
			fn(path, v)
			return
		}
		for i := 0; i < v.Len(); i++ {
			walk(path+"["+strconv.Itoa(i)+"]", v.Index(i), fn)
		}
	default:
		fn(path, v)
	}
}

// FieldStrings flattens v into path → printed value, the form editors and
// debug dumps consume.
func FieldStrings(v any) map[string]string {
	out := make(map[string]string)
	ForEachField(v, func(path string, f reflect.Value) {
		if !f.IsValid() || !f.CanInterface() {
			return
		}
		out[path] = fmt.Sprint(f.Interface())
	})
	return out
}

// fixedSize reports whether values of t have a platform-independent fixed
// binary layout and can therefore be written as raw bytes.
func fixedSize(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Array:
		return fixedSize(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || !fixedSize(f.Type) {
				return false
			}
		}
		return true
	}
	return false
}
