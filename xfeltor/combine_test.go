package xfeltor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenrikJantti/xFELTOR/internal/layout"
)

// run builds one in-memory restart segment: a time coordinate, an
// electron density over it, and whatever build adds on top.
func run(t *testing.T, times, electrons []float64, build func(*Dataset)) *Dataset {
	t.Helper()
	d := NewDataset()
	require.NoError(t, d.AssignCoords("time", "time", times))
	require.NoError(t, d.Assign("electrons", []string{"time"}, electrons))
	if build != nil {
		build(d)
	}
	return d
}

func float64sOf(t *testing.T, d *Dataset, name string) []float64 {
	t.Helper()
	v := d.Var(name)
	require.NotNil(t, v, "variable %q", name)
	vals, err := v.Float64s()
	require.NoError(t, err)
	return vals
}

func TestCombineNested(t *testing.T) {
	in1 := run(t, []float64{0, 0.5}, []float64{1, 2}, func(d *Dataset) {
		require.NoError(t, d.Assign("background", []string{"x"}, []float64{10, 20}))
		d.SetAttr("title", "run1")
	})
	in2 := run(t, []float64{1, 1.5}, []float64{3, 4}, func(d *Dataset) {
		d.SetAttr("title", "run2")
		d.SetAttr("extra", true)
	})

	out, err := combine([]*Dataset{in1, in2}, false)
	require.NoError(t, err)

	n, _ := out.DimLen("time")
	assert.Equal(t, 4, n)
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, float64sOf(t, out, "time"))
	assert.Equal(t, []float64{1, 2, 3, 4}, float64sOf(t, out, "electrons"))
	assert.True(t, out.Var("time").IsCoord())

	// record variables concatenate lazily
	_, lazy := out.Var("electrons").data.(*layout.Concat)
	assert.True(t, lazy)

	// a variable carried by a single input comes through unchanged
	assert.Equal(t, []float64{10, 20}, float64sOf(t, out, "background"))

	// attributes come from the first input only
	title, _ := out.Attr("title")
	assert.Equal(t, "run1", title)
	assert.False(t, out.HasAttr("extra"))
}

func TestCombineSingle(t *testing.T) {
	in := run(t, []float64{0}, []float64{1}, nil)
	out, err := combine([]*Dataset{in}, false)
	require.NoError(t, err)
	assert.Same(t, in, out)

	_, err = combine(nil, false)
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestCombineByCoords(t *testing.T) {
	late := run(t, []float64{2, 3}, []float64{30, 40}, nil)
	early := run(t, []float64{0, 1}, []float64{10, 20}, nil)

	out, err := combine([]*Dataset{late, early}, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, float64sOf(t, out, "time"))
	assert.Equal(t, []float64{10, 20, 30, 40}, float64sOf(t, out, "electrons"))
}

func TestCombineOuterJoin(t *testing.T) {
	t.Run("disjoint coordinates merge with fill", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{0, 1}))
			require.NoError(t, d.Assign("n_prb", []string{"probe_time"}, []float64{10, 11}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{2, 3}))
			require.NoError(t, d.Assign("n_prb", []string{"probe_time"}, []float64{12, 13}))
		})

		out, err := combine([]*Dataset{in1, in2}, false)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2, 3}, float64sOf(t, out, "probe_time"))
		assert.Equal(t, []float64{10, 11, 12, 13}, float64sOf(t, out, "n_prb"))
		n, _ := out.DimLen("probe_time")
		assert.Equal(t, 4, n)
	})

	t.Run("overlapping values must agree", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{0, 1}))
			require.NoError(t, d.Assign("n_prb", []string{"probe_time"}, []float64{10, 11}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{1, 2}))
			require.NoError(t, d.Assign("n_prb", []string{"probe_time"}, []float64{11, 12}))
		})

		out, err := combine([]*Dataset{in1, in2}, false)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2}, float64sOf(t, out, "probe_time"))
		assert.Equal(t, []float64{10, 11, 12}, float64sOf(t, out, "n_prb"))
	})

	t.Run("conflicting overlap", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{0, 1}))
			require.NoError(t, d.Assign("n_prb", []string{"probe_time"}, []float64{10, 11}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{1, 2}))
			require.NoError(t, d.Assign("n_prb", []string{"probe_time"}, []float64{99, 12}))
		})

		_, err := combine([]*Dataset{in1, in2}, false)
		assert.ErrorIs(t, err, ErrAlignment)
	})

	t.Run("record variable fills its inner axis", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("p", "p", []float64{0, 1}))
			require.NoError(t, d.Assign("f", []string{"time", "p"}, [][]float64{{1, 2}}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("p", "p", []float64{1, 2}))
			require.NoError(t, d.Assign("f", []string{"time", "p"}, [][]float64{{5, 6}}))
		})

		out, err := combine([]*Dataset{in1, in2}, false)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2}, float64sOf(t, out, "p"))
		fv := out.Var("f")
		assert.Equal(t, []int{2, 3}, fv.Shape())
		vals, err := fv.Float64s()
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, vals[:2])
		assert.True(t, math.IsNaN(vals[2]))
		assert.True(t, math.IsNaN(vals[3]))
		assert.Equal(t, []float64{5, 6}, vals[4:])
	})

	t.Run("integer variable cannot be filled", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{0, 1}))
			require.NoError(t, d.Assign("hits", []string{"probe_time"}, []int32{1, 2}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("probe_time", "probe_time", []float64{2, 3}))
			require.NoError(t, d.Assign("hits", []string{"probe_time"}, []int32{3, 4}))
		})

		_, err := combine([]*Dataset{in1, in2}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NaN-fill")
	})
}

func TestCombineAlignmentErrors(t *testing.T) {
	t.Run("record variable missing from an input", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.Assign("ions", []string{"time"}, []float64{1}))
		})
		in2 := run(t, []float64{1}, []float64{2}, nil)

		_, err := combine([]*Dataset{in1, in2}, false)
		require.ErrorIs(t, err, ErrAlignment)
		assert.Contains(t, err.Error(), `"ions"`)
	})

	t.Run("sizes differ without a coordinate", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.Assign("background", []string{"x"}, []float64{1, 2}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.Assign("background", []string{"x"}, []float64{1, 2, 3}))
		})

		_, err := combine([]*Dataset{in1, in2}, false)
		assert.ErrorIs(t, err, ErrAlignment)
	})

	t.Run("duplicate coordinate value within one input", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("p", "p", []float64{0, 0}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.AssignCoords("p", "p", []float64{0, 1}))
		})

		_, err := combine([]*Dataset{in1, in2}, false)
		require.ErrorIs(t, err, ErrAlignment)
		assert.Contains(t, err.Error(), "duplicate coordinate value")
	})

	t.Run("non-numeric coordinates must match", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.Assign("species", []string{"species"}, []string{"e", "i"}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.Assign("species", []string{"species"}, []string{"e", "H"}))
		})

		_, err := combine([]*Dataset{in1, in2}, false)
		require.ErrorIs(t, err, ErrAlignment)
		assert.Contains(t, err.Error(), "non-numeric")
	})

	t.Run("dimension order differs", func(t *testing.T) {
		in1 := run(t, []float64{0}, []float64{1}, func(d *Dataset) {
			require.NoError(t, d.Assign("f", []string{"time", "x"}, [][]float64{{1, 2}}))
		})
		in2 := run(t, []float64{1}, []float64{2}, func(d *Dataset) {
			require.NoError(t, d.Assign("f", []string{"x", "time"}, [][]float64{{1}, {2}}))
		})

		_, err := combine([]*Dataset{in1, in2}, false)
		assert.ErrorIs(t, err, ErrAlignment)
	})
}

func TestCombineOwnership(t *testing.T) {
	closes := make([]int, 2)
	in1 := run(t, []float64{0}, []float64{1}, nil)
	in1.addCloser(func() { closes[0]++ })
	in2 := run(t, []float64{1}, []float64{2}, nil)
	in2.addCloser(func() { closes[1]++ })

	out, err := combine([]*Dataset{in1, in2}, false)
	require.NoError(t, err)

	// the inputs' handles now belong to the combined dataset
	in1.Close()
	in2.Close()
	assert.Equal(t, []int{0, 0}, closes)

	out.Close()
	assert.Equal(t, []int{1, 1}, closes)
}

func TestCombinePipeline(t *testing.T) {
	segment := func(times, electrons []float64) *Dataset {
		return run(t, times, electrons, func(d *Dataset) {
			d.SetAttr("inputfile", `{"n0": 1.5}`)
		})
	}

	t.Run("restart deduplication keeps the earlier frame", func(t *testing.T) {
		out, err := Combine([]*Dataset{
			segment([]float64{0, 1}, []float64{1, 2}),
			segment([]float64{1, 2}, []float64{99, 3}),
		})
		require.NoError(t, err)
		defer out.Close()

		assert.Equal(t, []float64{0, 1, 2}, float64sOf(t, out, "time"))
		assert.Equal(t, []float64{1, 2, 3}, float64sOf(t, out, "electrons"))
		n0, ok := out.Attr("n0")
		assert.True(t, ok)
		assert.Equal(t, 1.5, n0)
	})

	t.Run("keep restart indices", func(t *testing.T) {
		out, err := Combine([]*Dataset{
			segment([]float64{0, 1}, []float64{1, 2}),
			segment([]float64{1, 2}, []float64{99, 3}),
		}, KeepRestartIndices())
		require.NoError(t, err)
		defer out.Close()

		assert.Equal(t, []float64{0, 1, 1, 2}, float64sOf(t, out, "time"))
		assert.Equal(t, []float64{1, 2, 99, 3}, float64sOf(t, out, "electrons"))
		assert.False(t, out.HasAttr("n0"))
	})
}
