package xfeltor

import (
	"fmt"
	"sort"

	"github.com/HenrikJantti/xFELTOR/internal/dtype"
	"github.com/HenrikJantti/xFELTOR/internal/layout"
)

// Probe output names. The grid mode reshapes the diagnostics in
// gridProbeVars onto (probe_y, probe_x, probe_time) and then drops the
// flat probe dimension.
const (
	probeXCoord  = "probe_x"
	probeYCoord  = "probe_y"
	probeTimeDim = "probe_time"
	flatProbeDim = "probes"
)

var gridProbeVars = []string{"electrons_prb", "ions_prb", "potential_prb", "vorticity_prb"}

func applyProbes(d *Dataset, o *options) error {
	switch o.probes {
	case ProbesNone:
		return nil
	case ProbesGrid:
		return applyProbeGrid(d, o)
	case ProbesCoords:
		return applyProbeCoords(d, o)
	}
	return fmt.Errorf("unknown probe mode %d: %w", o.probes, ErrBadOption)
}

// applyProbeGrid turns the flat probe layout into a spatial grid: the
// unique probe positions become probe_x/probe_y coordinates, each
// probe diagnostic is reshaped to (probe_y, probe_x, probe_time), and
// the flat probe dimension is dropped with everything still on it.
func applyProbeGrid(d *Dataset, o *options) error {
	xs, err := uniqueValues(d, o.probeXVar)
	if err != nil {
		return err
	}
	ys, err := uniqueValues(d, o.probeYVar)
	if err != nil {
		return err
	}
	pt := d.Var(probeTimeDim)
	if pt == nil {
		return fmt.Errorf("probe variable %q: %w", probeTimeDim, ErrMissingVariable)
	}
	nt := pt.Len()

	if err := d.AssignCoords(probeXCoord, probeXCoord, xs); err != nil {
		return err
	}
	if err := d.AssignCoords(probeYCoord, probeYCoord, ys); err != nil {
		return err
	}

	for _, name := range gridProbeVars {
		v := d.Var(name)
		if v == nil {
			return fmt.Errorf("probe variable %q: %w", name, ErrMissingVariable)
		}
		vals, err := v.Values()
		if err != nil {
			return err
		}
		n, err := dtype.Length(vals)
		if err != nil {
			return fmt.Errorf("probe variable %q: %w", name, err)
		}
		if n != len(ys)*len(xs)*nt {
			return fmt.Errorf("probe variable %q has %d values, cannot reshape to (%d, %d, %d): %w",
				name, n, len(ys), len(xs), nt, ErrShapeMismatch)
		}
		shape := []int{len(ys), len(xs), nt}
		mem, err := layout.NewMemory(vals, shape[0], dtype.Product(shape[1:]))
		if err != nil {
			return fmt.Errorf("probe variable %q: %w", name, err)
		}
		err = d.addVar(&Variable{
			name:  name,
			dims:  []string{probeYCoord, probeXCoord, probeTimeDim},
			shape: shape,
			attrs: copyAttrs(v.attrs),
			data:  mem,
		})
		if err != nil {
			return err
		}
	}
	return d.DropDims(flatProbeDim)
}

// applyProbeCoords attaches the probe position variables as
// probe_x/probe_y coordinates on the probe-id dimension, order and
// count unchanged.
func applyProbeCoords(d *Dataset, o *options) error {
	if !d.HasDim(o.probeDim) {
		return fmt.Errorf("probe dimension %q: %w", o.probeDim, ErrDimNotFound)
	}
	for _, pair := range [][2]string{{o.probeXVar, probeXCoord}, {o.probeYVar, probeYCoord}} {
		src, dst := pair[0], pair[1]
		v := d.Var(src)
		if v == nil {
			return fmt.Errorf("probe variable %q: %w", src, ErrMissingVariable)
		}
		vals, err := v.Values()
		if err != nil {
			return err
		}
		if err := d.AssignCoords(dst, o.probeDim, vals); err != nil {
			return err
		}
	}
	return nil
}

// uniqueValues reads a variable and returns its distinct values in
// ascending order.
func uniqueValues(d *Dataset, name string) ([]float64, error) {
	v := d.Var(name)
	if v == nil {
		return nil, fmt.Errorf("probe variable %q: %w", name, ErrMissingVariable)
	}
	vals, err := v.Float64s()
	if err != nil {
		return nil, err
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	out := sorted[:0]
	for i, x := range sorted {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out, nil
}
