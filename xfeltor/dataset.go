package xfeltor

import (
	"fmt"
	"sort"
	"strings"
)

// Dataset is a set of named variables sharing named dimensions, with a
// free-form attribute map. Variables opened from files stay lazy until
// read; Close releases their file handles.
type Dataset struct {
	dims    map[string]int
	vars    map[string]*Variable
	attrs   map[string]interface{}
	closers []func()
	closed  bool
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		dims:  make(map[string]int),
		vars:  make(map[string]*Variable),
		attrs: make(map[string]interface{}),
	}
}

// addVar registers a variable, validating its shape against known
// dimensions and creating the new ones.
func (d *Dataset) addVar(v *Variable) error {
	if len(v.dims) != len(v.shape) {
		return fmt.Errorf("variable %q: %d dims for rank %d: %w",
			v.name, len(v.dims), len(v.shape), ErrShapeMismatch)
	}
	for i, dim := range v.dims {
		if n, ok := d.dims[dim]; ok && n != v.shape[i] {
			return fmt.Errorf("variable %q: dimension %q has size %d, data has %d: %w",
				v.name, dim, n, v.shape[i], ErrShapeMismatch)
		}
	}
	for i, dim := range v.dims {
		if _, ok := d.dims[dim]; !ok {
			d.dims[dim] = v.shape[i]
		}
	}
	v.ds = d
	d.vars[v.name] = v
	return nil
}

// addCloser hands the dataset a file handle to release on Close.
func (d *Dataset) addCloser(c func()) {
	d.closers = append(d.closers, c)
}

// Dims returns a copy of the dimension sizes.
func (d *Dataset) Dims() map[string]int {
	out := make(map[string]int, len(d.dims))
	for k, v := range d.dims {
		out[k] = v
	}
	return out
}

// HasDim reports whether the named dimension exists.
func (d *Dataset) HasDim(name string) bool {
	_, ok := d.dims[name]
	return ok
}

// DimLen returns the size of the named dimension.
func (d *Dataset) DimLen(name string) (int, bool) {
	n, ok := d.dims[name]
	return n, ok
}

// VarNames returns all variable names in sorted order.
func (d *Dataset) VarNames() []string {
	names := make([]string, 0, len(d.vars))
	for name := range d.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoordNames returns the coordinate variable names in sorted order.
func (d *Dataset) CoordNames() []string {
	var names []string
	for name, v := range d.vars {
		if v.coord {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Var returns a variable by name, or nil if not present.
func (d *Dataset) Var(name string) *Variable {
	return d.vars[name]
}

// HasVar reports whether the named variable exists.
func (d *Dataset) HasVar(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// Attrs returns the dataset attribute map. The map is the dataset's
// own: mutations are visible to later readers.
func (d *Dataset) Attrs() map[string]interface{} {
	return d.attrs
}

// Attr returns an attribute value by name.
func (d *Dataset) Attr(name string) (interface{}, bool) {
	v, ok := d.attrs[name]
	return v, ok
}

// HasAttr reports whether the named attribute exists.
func (d *Dataset) HasAttr(name string) bool {
	_, ok := d.attrs[name]
	return ok
}

// SetAttr sets an attribute, overwriting any existing value.
func (d *Dataset) SetAttr(name string, value interface{}) {
	d.attrs[name] = value
}

// Close releases the file handles held by lazy variables. Reading a
// lazy variable afterwards returns ErrClosed. Close is safe to call
// more than once.
func (d *Dataset) Close() {
	if d.closed {
		return
	}
	d.closed = true
	for _, c := range d.closers {
		c()
	}
	d.closers = nil
}

// String returns a compact summary of dimensions, coordinates,
// variables and the attribute count.
func (d *Dataset) String() string {
	var b strings.Builder
	b.WriteString("dimensions:")
	for i, name := range sortedKeys(d.dims) {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, " %s=%d", name, d.dims[name])
	}
	b.WriteString("\ncoordinates:")
	for _, name := range d.CoordNames() {
		b.WriteByte(' ')
		b.WriteString(name)
	}
	b.WriteString("\nvariables:")
	for _, name := range d.VarNames() {
		v := d.vars[name]
		if v.coord {
			continue
		}
		fmt.Fprintf(&b, " %s(%s)", name, strings.Join(v.dims, ","))
	}
	fmt.Fprintf(&b, "\nattributes: %d", len(d.attrs))
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
