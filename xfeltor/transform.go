package xfeltor

import (
	"fmt"

	"github.com/HenrikJantti/xFELTOR/internal/dtype"
	"github.com/HenrikJantti/xFELTOR/internal/layout"
)

// Isel selects positions along one dimension of every variable
// carrying it. indices may reorder and repeat. Selections along a
// variable's leading axis stay lazy; selections along inner axes
// materialize the variable. On error the dataset is unchanged.
func (d *Dataset) Isel(dim string, indices []int) error {
	if d.closed {
		return ErrClosed
	}
	size, ok := d.dims[dim]
	if !ok {
		return fmt.Errorf("isel %q: %w", dim, ErrDimNotFound)
	}
	for _, ix := range indices {
		if ix < 0 || ix >= size {
			return fmt.Errorf("isel %q: index %d out of range (size %d)", dim, ix, size)
		}
	}

	type change struct {
		v     *Variable
		data  layout.Layout
		shape []int
	}
	var changes []change
	for _, name := range d.VarNames() {
		v := d.vars[name]
		axis := axisOf(v.dims, dim)
		if axis < 0 {
			continue
		}
		shape := v.Shape()
		shape[axis] = len(indices)
		var data layout.Layout
		if axis == 0 {
			sel, err := layout.NewSelection(v.data, indices)
			if err != nil {
				return fmt.Errorf("isel %q on variable %q: %w", dim, name, err)
			}
			data = sel
		} else {
			vals, err := v.data.Read()
			if err != nil {
				return fmt.Errorf("isel %q on variable %q: %w", dim, name, err)
			}
			flat, _, err := dtype.Gather(vals, v.shape, axis, indices)
			if err != nil {
				return fmt.Errorf("isel %q on variable %q: %w", dim, name, err)
			}
			mem, err := layout.NewMemory(flat, shape[0], dtype.Product(shape[1:]))
			if err != nil {
				return fmt.Errorf("isel %q on variable %q: %w", dim, name, err)
			}
			data = mem
		}
		changes = append(changes, change{v: v, data: data, shape: shape})
	}

	for _, c := range changes {
		c.v.data = c.data
		c.v.shape = c.shape
	}
	d.dims[dim] = len(indices)
	return nil
}

// Assign sets a variable to the given dimensions and values, replacing
// any existing variable of the same name. values may be a scalar, a
// flat slice for a one-dimensional variable, or nested slices whose
// shape matches dims. Dimensions not yet known to the dataset are
// created; known ones must match.
func (d *Dataset) Assign(name string, dims []string, values interface{}) error {
	if d.closed {
		return ErrClosed
	}
	flat, shape, err := dtype.Flatten(values)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	if len(shape) != len(dims) {
		return fmt.Errorf("variable %q: data has rank %d, dims %v: %w",
			name, len(shape), dims, ErrShapeMismatch)
	}
	outer, block := 1, 1
	if len(shape) > 0 {
		outer = shape[0]
		block = dtype.Product(shape[1:])
	}
	mem, err := layout.NewMemory(flat, outer, block)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	return d.addVar(&Variable{
		name:  name,
		dims:  append([]string(nil), dims...),
		shape: shape,
		attrs: make(map[string]interface{}),
		data:  mem,
		coord: len(dims) == 1 && dims[0] == name,
	})
}

// AssignCoords attaches a 1-D coordinate named name over dim,
// replacing any existing variable of the same name. A new dimension is
// created when dim is not yet known; otherwise the length must match.
func (d *Dataset) AssignCoords(name, dim string, values interface{}) error {
	if d.closed {
		return ErrClosed
	}
	flat, shape, err := dtype.Flatten(values)
	if err != nil {
		return fmt.Errorf("coordinate %q: %w", name, err)
	}
	if len(shape) != 1 {
		return fmt.Errorf("coordinate %q: want 1-D values, got rank %d: %w",
			name, len(shape), ErrShapeMismatch)
	}
	if n, ok := d.dims[dim]; ok && n != shape[0] {
		return fmt.Errorf("coordinate %q: dimension %q has size %d, values have %d: %w",
			name, dim, n, shape[0], ErrShapeMismatch)
	}
	mem, err := layout.NewMemory(flat, shape[0], 1)
	if err != nil {
		return fmt.Errorf("coordinate %q: %w", name, err)
	}
	return d.addVar(&Variable{
		name:  name,
		dims:  []string{dim},
		shape: shape,
		attrs: make(map[string]interface{}),
		data:  mem,
		coord: true,
	})
}

// DropDims removes the named dimensions and every variable carrying
// any of them.
func (d *Dataset) DropDims(dims ...string) error {
	if d.closed {
		return ErrClosed
	}
	for _, dim := range dims {
		if _, ok := d.dims[dim]; !ok {
			return fmt.Errorf("drop dims %q: %w", dim, ErrDimNotFound)
		}
	}
	drop := make(map[string]bool, len(dims))
	for _, dim := range dims {
		drop[dim] = true
	}
	for name, v := range d.vars {
		for _, dim := range v.dims {
			if drop[dim] {
				delete(d.vars, name)
				break
			}
		}
	}
	for _, dim := range dims {
		delete(d.dims, dim)
	}
	return nil
}

// axisOf returns the axis of dim in dims, or -1.
func axisOf(dims []string, dim string) int {
	for i, d := range dims {
		if d == dim {
			return i
		}
	}
	return -1
}
