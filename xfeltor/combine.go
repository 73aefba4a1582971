package xfeltor

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/HenrikJantti/xFELTOR/internal/dtype"
	"github.com/HenrikJantti/xFELTOR/internal/layout"
)

// combine concatenates the inputs along the record dimension and
// outer-joins the remaining dimensions by coordinate value. Dataset
// attributes come from the first input; the result adopts every
// input's file handles. With byCoords the inputs are reordered by
// their first record-coordinate value first.
func combine(inputs []*Dataset, byCoords bool) (*Dataset, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	ordered := append([]*Dataset(nil), inputs...)
	if byCoords {
		sort.SliceStable(ordered, func(i, j int) bool {
			return firstRecordValue(ordered[i]) < firstRecordValue(ordered[j])
		})
	}
	if len(ordered) == 1 {
		return ordered[0], nil
	}

	aligns, err := alignDims(ordered)
	if err != nil {
		return nil, err
	}

	out := NewDataset()
	for _, name := range varNamesAcross(ordered) {
		v, err := combineVar(ordered, name, aligns)
		if err != nil {
			return nil, err
		}
		if err := out.addVar(v); err != nil {
			return nil, err
		}
	}
	for k, v := range ordered[0].attrs {
		out.attrs[k] = v
	}
	for _, in := range ordered {
		out.closers = append(out.closers, in.closers...)
		in.closers = nil
	}
	return out, nil
}

// firstRecordValue orders inputs for by-coords combination; inputs
// without a record coordinate order last.
func firstRecordValue(d *Dataset) float64 {
	v := d.Var(timeDim)
	if v == nil {
		return math.Inf(1)
	}
	vals, err := v.Float64s()
	if err != nil || len(vals) == 0 {
		return math.Inf(1)
	}
	return vals[0]
}

// dimAlign describes how one non-record dimension lines up across
// inputs. union is nil while every input agrees; otherwise it holds
// the value union in first-seen order and dst maps each input's rows
// to union positions.
type dimAlign struct {
	size  int
	union []float64
	dst   map[int][]int
}

func alignDims(inputs []*Dataset) (map[string]*dimAlign, error) {
	aligns := make(map[string]*dimAlign)
	for _, dim := range dimNamesAcross(inputs) {
		if dim == timeDim {
			continue
		}
		var carriers []int
		var sizes []int
		var coords []*Variable
		withCoord := 0
		for i, in := range inputs {
			n, ok := in.DimLen(dim)
			if !ok {
				continue
			}
			carriers = append(carriers, i)
			sizes = append(sizes, n)
			cv := in.Var(dim)
			if cv != nil && len(cv.dims) == 1 && cv.dims[0] == dim {
				withCoord++
			} else {
				cv = nil
			}
			coords = append(coords, cv)
		}

		if withCoord == 0 {
			for _, n := range sizes[1:] {
				if n != sizes[0] {
					return nil, fmt.Errorf("dimension %q has sizes %d and %d and no coordinate to align by: %w",
						dim, sizes[0], n, ErrAlignment)
				}
			}
			aligns[dim] = &dimAlign{size: sizes[0]}
			continue
		}
		if withCoord != len(carriers) {
			return nil, fmt.Errorf("dimension %q has a coordinate in only some inputs: %w", dim, ErrAlignment)
		}

		a, err := alignCoord(dim, carriers, coords)
		if err != nil {
			return nil, err
		}
		aligns[dim] = a
	}
	return aligns, nil
}

// alignCoord compares one dimension's coordinate across inputs and
// builds the value union when they disagree.
func alignCoord(dim string, carriers []int, coords []*Variable) (*dimAlign, error) {
	vals := make([][]float64, len(coords))
	numeric := true
	for ci, cv := range coords {
		fs, err := cv.Float64s()
		if err != nil {
			numeric = false
			break
		}
		vals[ci] = fs
	}
	if !numeric {
		// non-numeric coordinates cannot be NaN-filled; they must agree
		raw0, err := coords[0].Values()
		if err != nil {
			return nil, fmt.Errorf("coordinate %q: %w", dim, err)
		}
		for _, cv := range coords[1:] {
			raw, err := cv.Values()
			if err != nil {
				return nil, fmt.Errorf("coordinate %q: %w", dim, err)
			}
			if !reflect.DeepEqual(raw, raw0) {
				return nil, fmt.Errorf("cannot align non-numeric coordinate %q: %w", dim, ErrAlignment)
			}
		}
		return &dimAlign{size: coords[0].shape[0]}, nil
	}

	same := true
	for _, fs := range vals[1:] {
		if !floatSeqEqual(fs, vals[0]) {
			same = false
			break
		}
	}
	if same {
		return &dimAlign{size: len(vals[0])}, nil
	}

	// value union across inputs, first-seen order; NaNs never merge
	var union []float64
	pos := make(map[float64]int)
	dst := make(map[int][]int, len(carriers))
	for ci, fs := range vals {
		seen := make(map[float64]bool, len(fs))
		d := make([]int, len(fs))
		for k, val := range fs {
			if math.IsNaN(val) {
				d[k] = len(union)
				union = append(union, val)
				continue
			}
			if seen[val] {
				return nil, fmt.Errorf("dimension %q has duplicate coordinate value %v: %w", dim, val, ErrAlignment)
			}
			seen[val] = true
			p, ok := pos[val]
			if !ok {
				p = len(union)
				union = append(union, val)
				pos[val] = p
			}
			d[k] = p
		}
		dst[carriers[ci]] = d
	}
	return &dimAlign{size: len(union), union: union, dst: dst}, nil
}

func combineVar(inputs []*Dataset, name string, aligns map[string]*dimAlign) (*Variable, error) {
	var carriers []int
	for i, in := range inputs {
		if in.HasVar(name) {
			carriers = append(carriers, i)
		}
	}
	first := inputs[carriers[0]].Var(name)
	for _, i := range carriers[1:] {
		v := inputs[i].Var(name)
		if !equalStrings(v.dims, first.dims) {
			return nil, fmt.Errorf("variable %q has dimensions %v and %v: %w",
				name, first.dims, v.dims, ErrAlignment)
		}
	}
	if axisR := axisOf(first.dims, timeDim); axisR >= 0 {
		return combineRecordVar(inputs, name, carriers, axisR, aligns)
	}
	return combineMergedVar(inputs, name, carriers, aligns)
}

// combineRecordVar concatenates one record variable along the record
// axis. When no inner axis needs NaN fill and the record axis leads,
// the sections stay lazy.
func combineRecordVar(inputs []*Dataset, name string, carriers []int, axisR int, aligns map[string]*dimAlign) (*Variable, error) {
	for i, in := range inputs {
		if in.HasDim(timeDim) && !in.HasVar(name) {
			return nil, fmt.Errorf("variable %q with dimension %q is missing from input %d: %w",
				name, timeDim, i, ErrAlignment)
		}
	}
	first := inputs[carriers[0]].Var(name)
	needsFill := false
	for ax, dim := range first.dims {
		if ax == axisR {
			continue
		}
		if a := aligns[dim]; a != nil && a.union != nil {
			needsFill = true
		}
	}

	if !needsFill && axisR == 0 {
		sections := make([]layout.Layout, len(carriers))
		total := 0
		for ci, i := range carriers {
			v := inputs[i].Var(name)
			sections[ci] = v.data
			total += v.shape[0]
		}
		cat, err := layout.NewConcat(sections)
		if err != nil {
			return nil, fmt.Errorf("concatenating variable %q: %w", name, err)
		}
		shape := first.Shape()
		shape[0] = total
		return &Variable{
			name:  name,
			dims:  first.Dims(),
			shape: shape,
			attrs: copyAttrs(first.attrs),
			data:  cat,
			coord: first.coord,
		}, nil
	}

	parts := make([]interface{}, len(carriers))
	shapes := make([][]int, len(carriers))
	for ci, i := range carriers {
		v := inputs[i].Var(name)
		vals, err := v.data.Read()
		if err != nil {
			return nil, fmt.Errorf("reading variable %q: %w", name, err)
		}
		vals, shape, err := fillAligned(vals, v.Shape(), v.dims, i, aligns, axisR)
		if err != nil {
			return nil, fmt.Errorf("aligning variable %q: %w", name, err)
		}
		parts[ci], shapes[ci] = vals, shape
	}
	flat, shape, err := dtype.ConcatAxis(parts, shapes, axisR)
	if err != nil {
		return nil, fmt.Errorf("concatenating variable %q: %w", name, err)
	}
	mem, err := layout.NewMemory(flat, shape[0], dtype.Product(shape[1:]))
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	return &Variable{
		name:  name,
		dims:  first.Dims(),
		shape: shape,
		attrs: copyAttrs(first.attrs),
		data:  mem,
		coord: first.coord,
	}, nil
}

// combineMergedVar merges one non-record variable. Structurally
// agreeing inputs stay lazy with the first input winning; inputs
// disagreeing on an aligned dimension are NaN-filled to the union and
// merged cell-wise.
func combineMergedVar(inputs []*Dataset, name string, carriers []int, aligns map[string]*dimAlign) (*Variable, error) {
	first := inputs[carriers[0]].Var(name)

	// the coordinate of an aligned dimension is the value union itself
	if first.coord && len(first.dims) == 1 {
		if a := aligns[first.dims[0]]; a != nil && a.union != nil {
			mem, err := layout.NewMemory(append([]float64(nil), a.union...), a.size, 1)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			return &Variable{
				name:  name,
				dims:  first.Dims(),
				shape: []int{a.size},
				attrs: copyAttrs(first.attrs),
				data:  mem,
				coord: true,
			}, nil
		}
	}

	needsFill := false
	for _, dim := range first.dims {
		if a := aligns[dim]; a != nil && a.union != nil {
			needsFill = true
		}
	}
	if !needsFill {
		for _, i := range carriers[1:] {
			v := inputs[i].Var(name)
			if !equalInts(v.shape, first.shape) {
				return nil, fmt.Errorf("variable %q has shapes %v and %v: %w",
					name, first.shape, v.shape, ErrAlignment)
			}
		}
		return &Variable{
			name:  name,
			dims:  first.Dims(),
			shape: first.Shape(),
			attrs: copyAttrs(first.attrs),
			data:  first.data,
			coord: first.coord,
		}, nil
	}

	var merged reflect.Value
	var shape []int
	for _, i := range carriers {
		v := inputs[i].Var(name)
		vals, err := v.data.Read()
		if err != nil {
			return nil, fmt.Errorf("reading variable %q: %w", name, err)
		}
		filled, fshape, err := fillAligned(vals, v.Shape(), v.dims, i, aligns, -1)
		if err != nil {
			return nil, fmt.Errorf("aligning variable %q: %w", name, err)
		}
		fv := reflect.ValueOf(filled)
		if !merged.IsValid() {
			merged, shape = fv, fshape
			continue
		}
		if fv.Type() != merged.Type() {
			return nil, fmt.Errorf("variable %q has element types %s and %s: %w",
				name, merged.Type().Elem(), fv.Type().Elem(), ErrAlignment)
		}
		if !equalInts(fshape, shape) {
			return nil, fmt.Errorf("variable %q has shapes %v and %v after alignment: %w",
				name, shape, fshape, ErrAlignment)
		}
		if err := mergeNaN(merged, fv, name); err != nil {
			return nil, err
		}
	}
	mem, err := layout.NewMemory(merged.Interface(), shape[0], dtype.Product(shape[1:]))
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	return &Variable{
		name:  name,
		dims:  first.Dims(),
		shape: shape,
		attrs: copyAttrs(first.attrs),
		data:  mem,
		coord: first.coord,
	}, nil
}

// fillAligned widens every aligned axis of one input's values to the
// union length, skipping the record axis.
func fillAligned(vals interface{}, shape []int, dims []string, input int, aligns map[string]*dimAlign, skipAxis int) (interface{}, []int, error) {
	for ax, dim := range dims {
		if ax == skipAxis {
			continue
		}
		a := aligns[dim]
		if a == nil || a.union == nil {
			continue
		}
		var err error
		vals, shape, err = dtype.ScatterAxis(vals, shape, ax, a.dst[input], a.size)
		if err != nil {
			return nil, nil, err
		}
	}
	return vals, shape, nil
}

// mergeNaN fills NaN cells of dst from src; differing non-NaN cells
// conflict.
func mergeNaN(dst, src reflect.Value, name string) error {
	for i := 0; i < dst.Len(); i++ {
		s := src.Index(i).Float()
		if math.IsNaN(s) {
			continue
		}
		d := dst.Index(i).Float()
		if math.IsNaN(d) {
			dst.Index(i).SetFloat(s)
			continue
		}
		if d != s {
			return fmt.Errorf("variable %q has conflicting values %v and %v after alignment: %w",
				name, d, s, ErrAlignment)
		}
	}
	return nil
}

// varNamesAcross returns every variable name, in first-seen input
// order, sorted within each input.
func varNamesAcross(inputs []*Dataset) []string {
	var names []string
	seen := make(map[string]bool)
	for _, in := range inputs {
		for _, name := range in.VarNames() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func dimNamesAcross(inputs []*Dataset) []string {
	var names []string
	seen := make(map[string]bool)
	for _, in := range inputs {
		for _, name := range sortedKeys(in.dims) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func copyAttrs(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// floatSeqEqual compares two sequences treating NaN as equal to NaN.
func floatSeqEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] && !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
