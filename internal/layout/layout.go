package layout

import (
	"fmt"
	"reflect"
)

// Layout is the interface for materializing variable data from a backing.
type Layout interface {
	// OuterLen returns the length of the leading axis. Scalars report 1.
	OuterLen() int

	// BlockLen returns the number of elements behind one leading-axis row.
	BlockLen() int

	// Elem returns the element type, or nil while it is not yet known
	// (a file backing learns it on first read).
	Elem() reflect.Type

	// Read materializes the whole value as a flat row-major slice.
	Read() (interface{}, error)

	// ReadOuter materializes count leading-axis rows starting at start,
	// as a flat row-major slice of count*BlockLen elements.
	ReadOuter(start, count int) (interface{}, error)
}

func checkRange(start, count, outer int) error {
	if start < 0 || count < 0 || start+count > outer {
		return fmt.Errorf("row range [%d,%d) out of bounds (outer length %d)", start, start+count, outer)
	}
	return nil
}

func emptySlice(elem reflect.Type) (interface{}, error) {
	if elem == nil {
		return nil, fmt.Errorf("element type unknown for empty read")
	}
	return reflect.MakeSlice(reflect.SliceOf(elem), 0, 0).Interface(), nil
}

// appendFlat accumulates flat windows into dst, allocating dst from the
// first window's type. capHint sizes the allocation in elements.
func appendFlat(dst reflect.Value, flat interface{}, capHint int) (reflect.Value, error) {
	fv := reflect.ValueOf(flat)
	if fv.Kind() != reflect.Slice {
		return dst, fmt.Errorf("backing returned non-slice %T", flat)
	}
	if !dst.IsValid() {
		dst = reflect.MakeSlice(fv.Type(), 0, capHint)
	} else if dst.Type() != fv.Type() {
		return dst, fmt.Errorf("backing returned mixed types %s and %s", dst.Type(), fv.Type())
	}
	return reflect.AppendSlice(dst, fv), nil
}

// Memory is a backing over an already materialized flat slice.
type Memory struct {
	data  reflect.Value
	outer int
	block int
}

// NewMemory wraps a flat row-major slice holding outer*block elements.
func NewMemory(data interface{}, outer, block int) (*Memory, error) {
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("memory backing needs a flat slice, got %T", data)
	}
	if rv.Len() != outer*block {
		return nil, fmt.Errorf("memory backing has %d elements, want %d (%d rows of %d)",
			rv.Len(), outer*block, outer, block)
	}
	return &Memory{data: rv, outer: outer, block: block}, nil
}

// OuterLen returns the leading-axis length.
func (m *Memory) OuterLen() int { return m.outer }

// BlockLen returns the elements per leading-axis row.
func (m *Memory) BlockLen() int { return m.block }

// Elem returns the element type.
func (m *Memory) Elem() reflect.Type { return m.data.Type().Elem() }

// Read returns the held slice. Callers must not mutate it.
func (m *Memory) Read() (interface{}, error) {
	return m.data.Interface(), nil
}

// ReadOuter returns a window of the held slice without copying.
func (m *Memory) ReadOuter(start, count int) (interface{}, error) {
	if err := checkRange(start, count, m.outer); err != nil {
		return nil, err
	}
	return m.data.Slice(start*m.block, (start+count)*m.block).Interface(), nil
}
