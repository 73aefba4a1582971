package dtype

import (
	"fmt"
	"reflect"
)

// Product returns the number of elements implied by shape.
// An empty shape (a scalar) has one element.
func Product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// ElemType returns the leaf element type of a possibly nested slice value.
// For scalars it returns the value's own type.
func ElemType(v interface{}) reflect.Type {
	if v == nil {
		return nil
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t
}

// Flatten converts a nested slice value into a flat row-major slice and its
// shape. Scalars become a one-element slice with an empty shape. A flat
// input slice is returned unchanged. Ragged nesting is an error.
func Flatten(v interface{}) (interface{}, []int, error) {
	if v == nil {
		return nil, nil, fmt.Errorf("flatten: nil value")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		out := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 1, 1)
		out.Index(0).Set(rv)
		return out.Interface(), []int{}, nil
	}

	depth := 0
	t := rv.Type()
	for t.Kind() == reflect.Slice {
		depth++
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface {
		return nil, nil, fmt.Errorf("flatten: unsupported element type %s", t)
	}
	if depth == 1 {
		return v, []int{rv.Len()}, nil
	}

	shape := make([]int, 0, depth)
	cur := rv
	for d := 0; d < depth; d++ {
		shape = append(shape, cur.Len())
		if cur.Len() == 0 {
			for len(shape) < depth {
				shape = append(shape, 0)
			}
			break
		}
		if d < depth-1 {
			cur = cur.Index(0)
		}
	}

	total := Product(shape)
	flat := reflect.MakeSlice(reflect.SliceOf(t), 0, total)
	if total > 0 {
		var walk func(x reflect.Value, level int) error
		walk = func(x reflect.Value, level int) error {
			if x.Len() != shape[level] {
				return fmt.Errorf("flatten: ragged input at depth %d: got length %d, want %d",
					level, x.Len(), shape[level])
			}
			if level == depth-1 {
				flat = reflect.AppendSlice(flat, x)
				return nil
			}
			for i := 0; i < x.Len(); i++ {
				if err := walk(x.Index(i), level+1); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(rv, 0); err != nil {
			return nil, nil, err
		}
	}
	return flat.Interface(), shape, nil
}

// Length returns the length of a flat slice value.
func Length(v interface{}) (int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return 0, fmt.Errorf("length: not a slice: %T", v)
	}
	return rv.Len(), nil
}
