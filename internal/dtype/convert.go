package dtype

import (
	"fmt"
	"reflect"
)

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// convertNumeric converts a flat slice of any numeric element type to []T.
// The input is returned as is when it already is a []T.
func convertNumeric[T int32 | int64 | float32 | float64](v interface{}) ([]T, error) {
	if s, ok := v.([]T); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("convert: not a slice: %T", v)
	}
	if !isNumericKind(rv.Type().Elem().Kind()) {
		return nil, fmt.Errorf("convert: non-numeric element type %s", rv.Type().Elem())
	}
	target := reflect.TypeOf((*T)(nil)).Elem()
	out := make([]T, rv.Len())
	ov := reflect.ValueOf(out)
	for i := 0; i < rv.Len(); i++ {
		ov.Index(i).Set(rv.Index(i).Convert(target))
	}
	return out, nil
}

// AsFloat64s converts a flat numeric slice to []float64.
func AsFloat64s(v interface{}) ([]float64, error) {
	return convertNumeric[float64](v)
}

// AsFloat32s converts a flat numeric slice to []float32.
func AsFloat32s(v interface{}) ([]float32, error) {
	return convertNumeric[float32](v)
}

// AsInt64s converts a flat numeric slice to []int64.
func AsInt64s(v interface{}) ([]int64, error) {
	return convertNumeric[int64](v)
}

// AsInt32s converts a flat numeric slice to []int32.
func AsInt32s(v interface{}) ([]int32, error) {
	return convertNumeric[int32](v)
}

// AsStrings returns a flat value as []string. No conversion from other
// element types is attempted.
func AsStrings(v interface{}) ([]string, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return nil, fmt.Errorf("convert: not a string slice: %T", v)
}
