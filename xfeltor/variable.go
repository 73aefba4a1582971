package xfeltor

import (
	"fmt"

	"github.com/HenrikJantti/xFELTOR/internal/dtype"
	"github.com/HenrikJantti/xFELTOR/internal/layout"
)

// Variable is one named array of a Dataset.
type Variable struct {
	name  string
	dims  []string
	shape []int
	attrs map[string]interface{}
	data  layout.Layout
	coord bool
	ds    *Dataset
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.name
}

// Dims returns the dimension names in axis order.
func (v *Variable) Dims() []string {
	return append([]string(nil), v.dims...)
}

// Shape returns the dimension sizes in axis order.
func (v *Variable) Shape() []int {
	return append([]int(nil), v.shape...)
}

// Len returns the total number of elements.
func (v *Variable) Len() int {
	return dtype.Product(v.shape)
}

// IsCoord reports whether the variable is a coordinate.
func (v *Variable) IsCoord() bool {
	return v.coord
}

// Attrs returns the variable attribute map. The map is the variable's
// own: mutations are visible to later readers.
func (v *Variable) Attrs() map[string]interface{} {
	return v.attrs
}

// Attr returns an attribute value by name.
func (v *Variable) Attr(name string) (interface{}, bool) {
	val, ok := v.attrs[name]
	return val, ok
}

// HasAttr reports whether the named attribute exists.
func (v *Variable) HasAttr(name string) bool {
	_, ok := v.attrs[name]
	return ok
}

// Values materializes the variable as a flat row-major slice. Lazy
// variables read from their file backing; chunked backings read in
// chunk-size steps along the leading dimension. Callers must not
// mutate the returned slice.
func (v *Variable) Values() (interface{}, error) {
	if v.ds != nil && v.ds.closed {
		return nil, fmt.Errorf("reading variable %q: %w", v.name, ErrClosed)
	}
	vals, err := v.data.Read()
	if err != nil {
		return nil, fmt.Errorf("reading variable %q: %w", v.name, err)
	}
	return vals, nil
}

// Float64s reads the variable and converts the values to float64.
func (v *Variable) Float64s() ([]float64, error) {
	vals, err := v.Values()
	if err != nil {
		return nil, err
	}
	out, err := dtype.AsFloat64s(vals)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.name, err)
	}
	return out, nil
}

// Float32s reads the variable and converts the values to float32.
func (v *Variable) Float32s() ([]float32, error) {
	vals, err := v.Values()
	if err != nil {
		return nil, err
	}
	out, err := dtype.AsFloat32s(vals)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.name, err)
	}
	return out, nil
}

// Int64s reads the variable and converts the values to int64.
func (v *Variable) Int64s() ([]int64, error) {
	vals, err := v.Values()
	if err != nil {
		return nil, err
	}
	out, err := dtype.AsInt64s(vals)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.name, err)
	}
	return out, nil
}

// Int32s reads the variable and converts the values to int32.
func (v *Variable) Int32s() ([]int32, error) {
	vals, err := v.Values()
	if err != nil {
		return nil, err
	}
	out, err := dtype.AsInt32s(vals)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.name, err)
	}
	return out, nil
}

// Strings reads the variable as string values.
func (v *Variable) Strings() ([]string, error) {
	vals, err := v.Values()
	if err != nil {
		return nil, err
	}
	out, err := dtype.AsStrings(vals)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.name, err)
	}
	return out, nil
}
