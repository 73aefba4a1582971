package dtype

import (
	"fmt"
	"math"
	"reflect"
)

func validateFlat(v interface{}, shape []int) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("not a flat slice: %T", v)
	}
	if rv.Len() != Product(shape) {
		return reflect.Value{}, fmt.Errorf("flat length %d does not match shape %v", rv.Len(), shape)
	}
	return rv, nil
}

// Gather selects the given indices along one axis of a flat row-major value.
// It returns the gathered flat value and its shape.
func Gather(v interface{}, shape []int, axis int, idx []int) (interface{}, []int, error) {
	rv, err := validateFlat(v, shape)
	if err != nil {
		return nil, nil, fmt.Errorf("gather: %w", err)
	}
	if axis < 0 || axis >= len(shape) {
		return nil, nil, fmt.Errorf("gather: axis %d out of range for shape %v", axis, shape)
	}
	for _, ix := range idx {
		if ix < 0 || ix >= shape[axis] {
			return nil, nil, fmt.Errorf("gather: index %d out of range for axis %d (size %d)", ix, axis, shape[axis])
		}
	}

	block := Product(shape[axis+1:])
	outer := Product(shape[:axis])
	outShape := append([]int(nil), shape...)
	outShape[axis] = len(idx)

	out := reflect.MakeSlice(rv.Type(), Product(outShape), Product(outShape))
	pos := 0
	for o := 0; o < outer; o++ {
		base := o * shape[axis] * block
		for _, ix := range idx {
			reflect.Copy(out.Slice(pos, pos+block), rv.Slice(base+ix*block, base+(ix+1)*block))
			pos += block
		}
	}
	return out.Interface(), outShape, nil
}

// ConcatAxis concatenates flat row-major values along one axis. All parts
// must share element type, rank and every dimension except the
// concatenation axis.
func ConcatAxis(parts []interface{}, shapes [][]int, axis int) (interface{}, []int, error) {
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("concat: no parts")
	}
	if len(parts) != len(shapes) {
		return nil, nil, fmt.Errorf("concat: %d parts but %d shapes", len(parts), len(shapes))
	}
	rank := len(shapes[0])
	if axis < 0 || axis >= rank {
		return nil, nil, fmt.Errorf("concat: axis %d out of range for rank %d", axis, rank)
	}

	elem := reflect.TypeOf(parts[0])
	axisTotal := 0
	for i, s := range shapes {
		if len(s) != rank {
			return nil, nil, fmt.Errorf("concat: part %d has rank %d, want %d", i, len(s), rank)
		}
		for d := 0; d < rank; d++ {
			if d != axis && s[d] != shapes[0][d] {
				return nil, nil, fmt.Errorf("concat: part %d dimension %d is %d, want %d", i, d, s[d], shapes[0][d])
			}
		}
		if reflect.TypeOf(parts[i]) != elem {
			return nil, nil, fmt.Errorf("concat: part %d has type %T, want %s", i, parts[i], elem)
		}
		if _, err := validateFlat(parts[i], s); err != nil {
			return nil, nil, fmt.Errorf("concat: part %d: %w", i, err)
		}
		axisTotal += s[axis]
	}

	block := Product(shapes[0][axis+1:])
	outer := Product(shapes[0][:axis])
	outShape := append([]int(nil), shapes[0]...)
	outShape[axis] = axisTotal

	out := reflect.MakeSlice(elem, Product(outShape), Product(outShape))
	pos := 0
	for o := 0; o < outer; o++ {
		for i, p := range parts {
			chunk := shapes[i][axis] * block
			pv := reflect.ValueOf(p)
			reflect.Copy(out.Slice(pos, pos+chunk), pv.Slice(o*chunk, (o+1)*chunk))
			pos += chunk
		}
	}
	return out.Interface(), outShape, nil
}

// ScatterAxis widens one axis of a flat row-major value to dstLen, placing
// row k of the axis at position dst[k] and filling every untouched row with
// NaN. Only float32 and float64 element types can be widened this way.
func ScatterAxis(v interface{}, shape []int, axis int, dst []int, dstLen int) (interface{}, []int, error) {
	rv, err := validateFlat(v, shape)
	if err != nil {
		return nil, nil, fmt.Errorf("scatter: %w", err)
	}
	if axis < 0 || axis >= len(shape) {
		return nil, nil, fmt.Errorf("scatter: axis %d out of range for shape %v", axis, shape)
	}
	if len(dst) != shape[axis] {
		return nil, nil, fmt.Errorf("scatter: %d destinations for axis of size %d", len(dst), shape[axis])
	}
	kind := rv.Type().Elem().Kind()
	if kind != reflect.Float32 && kind != reflect.Float64 {
		return nil, nil, fmt.Errorf("scatter: cannot NaN-fill element type %s", rv.Type().Elem())
	}
	for _, d := range dst {
		if d < 0 || d >= dstLen {
			return nil, nil, fmt.Errorf("scatter: destination %d out of range (size %d)", d, dstLen)
		}
	}

	block := Product(shape[axis+1:])
	outer := Product(shape[:axis])
	outShape := append([]int(nil), shape...)
	outShape[axis] = dstLen

	total := Product(outShape)
	out := reflect.MakeSlice(rv.Type(), total, total)
	nan := math.NaN()
	for i := 0; i < total; i++ {
		out.Index(i).SetFloat(nan)
	}
	for o := 0; o < outer; o++ {
		for k, d := range dst {
			src := rv.Slice((o*shape[axis]+k)*block, (o*shape[axis]+k+1)*block)
			reflect.Copy(out.Slice((o*dstLen+d)*block, (o*dstLen+d+1)*block), src)
		}
	}
	return out.Interface(), outShape, nil
}
