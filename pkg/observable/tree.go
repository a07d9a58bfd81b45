package observable

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// isObject reports whether v can be the root of an observable tree:
// a map, slice, array or struct, possibly behind pointers or interfaces.
func isObject(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

// normalize deep-copies v into the tree representation: maps become
// map[string]any, slices and arrays become []any, structs become maps keyed
// by json name. Structs without exported fields (time.Time, ...) and other
// values are kept as leaves.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int, int64, float64:
		return t
	}
	return normalizeValue(reflect.ValueOf(v))
}

func normalizeValue(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalizeValue(rv.Elem())

	case reflect.Map:
		if rv.IsNil() {
			return map[string]any{}
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = normalizeValue(iter.Value())
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalizeValue(rv.Index(i))
		}
		return out

	case reflect.Struct:
		fields := map[string]any{}
		if !structFields(rv, fields) {
			if rv.CanInterface() {
				return rv.Interface()
			}
			return nil
		}
		return fields

	default:
		if rv.CanInterface() {
			return rv.Interface()
		}
		return readOnly(rv)
	}
}

// readOnly extracts scalars reached through unexported embedded structs,
// which reflect refuses to Interface.
func readOnly(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return nil
	}
}

// structFields copies the exported fields of rv into out, flattening
// untagged embedded structs. It returns false if no field was exported.
func structFields(rv reflect.Value, out map[string]any) bool {
	rt := rv.Type()
	found := false
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, skip := fieldName(f)
		if skip {
			continue
		}

		fv := rv.Field(i)
		if f.Anonymous && name == "" {
			for fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					break
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				if structFields(fv, out) {
					found = true
				}
				continue
			}
		}

		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = normalizeValue(fv)
		found = true
	}
	return found
}

func fieldName(f reflect.StructField) (name string, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	return name, false
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// clone deep-copies a tree node.
func clone(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = clone(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = clone(v)
		}
		return out
	default:
		return node
	}
}

// lookup returns the node at path.
func lookup(node any, path Path) (any, bool) {
	for _, seg := range path {
		switch n := node.(type) {
		case map[string]any:
			child, ok := n[seg]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			i, ok := index(seg, len(n))
			if !ok {
				return nil, false
			}
			node = n[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// replaceAt applies fn to the node at path and stores the node it returns
// back into the parent. It returns the (possibly new) node.
func replaceAt(node any, path Path, fn func(any) (any, error)) (any, error) {
	if len(path) == 0 {
		return fn(node)
	}

	switch n := node.(type) {
	case map[string]any:
		child, ok := n[path[0]]
		if !ok {
			return nil, errMissing(path[0])
		}
		next, err := replaceAt(child, path[1:], fn)
		if err != nil {
			return nil, err
		}
		n[path[0]] = next
		return n, nil

	case []any:
		i, ok := index(path[0], len(n))
		if !ok {
			return nil, errMissing(path[0])
		}
		next, err := replaceAt(n[i], path[1:], fn)
		if err != nil {
			return nil, err
		}
		n[i] = next
		return n, nil

	default:
		return nil, errNotContainer(path[0])
	}
}

// index parses seg as an index in [0, length).
func index(seg string, length int) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= length {
		return 0, false
	}
	return i, true
}
