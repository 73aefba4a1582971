package layout

import (
	"fmt"
	"reflect"

	"github.com/HenrikJantti/xFELTOR/internal/dtype"
)

// SliceReader is the subset of the NetCDF backend's variable getter a file
// backing needs. The backend returns leading-axis windows as possibly
// nested slices.
type SliceReader interface {
	Len() int64
	GetSlice(begin, end int64) (interface{}, error)
}

// File is a backing whose rows live in a still-open backend variable.
type File struct {
	src   SliceReader
	outer int
	block int
	chunk int // max rows per backend read; 0 reads everything at once
	elem  reflect.Type
}

// NewFile wraps a backend getter serving outer rows of block elements each.
// elem may be nil when the backend does not report an element type; it is
// then learned on the first read.
func NewFile(src SliceReader, outer, block, chunk int, elem reflect.Type) *File {
	return &File{src: src, outer: outer, block: block, chunk: chunk, elem: elem}
}

// OuterLen returns the leading-axis length.
func (f *File) OuterLen() int { return f.outer }

// BlockLen returns the elements per leading-axis row.
func (f *File) BlockLen() int { return f.block }

// Elem returns the element type, nil before the first read when unknown.
func (f *File) Elem() reflect.Type { return f.elem }

// Read materializes the whole variable.
func (f *File) Read() (interface{}, error) {
	return f.ReadOuter(0, f.outer)
}

// ReadOuter materializes a row range, issuing backend reads of at most the
// configured chunk size.
func (f *File) ReadOuter(start, count int) (interface{}, error) {
	if err := checkRange(start, count, f.outer); err != nil {
		return nil, err
	}
	if count == 0 {
		return emptySlice(f.elem)
	}

	step := f.chunk
	if step <= 0 || step > count {
		step = count
	}

	var out reflect.Value
	for s := start; s < start+count; s += step {
		n := step
		if s+n > start+count {
			n = start + count - s
		}
		flat, err := f.readWindow(s, n)
		if err != nil {
			return nil, err
		}
		if n == count {
			// Single window covers the request; hand it back without copying.
			return flat, nil
		}
		out, err = appendFlat(out, flat, count*f.block)
		if err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (f *File) readWindow(start, count int) (interface{}, error) {
	raw, err := f.src.GetSlice(int64(start), int64(start+count))
	if err != nil {
		return nil, fmt.Errorf("reading rows [%d,%d): %w", start, start+count, err)
	}
	flat, _, err := dtype.Flatten(raw)
	if err != nil {
		return nil, fmt.Errorf("reading rows [%d,%d): %w", start, start+count, err)
	}
	n, err := dtype.Length(flat)
	if err != nil {
		return nil, err
	}
	if n != count*f.block {
		return nil, fmt.Errorf("backend returned %d elements for %d rows of %d", n, count, f.block)
	}
	if f.elem == nil {
		f.elem = reflect.ValueOf(flat).Type().Elem()
	}
	return flat, nil
}
