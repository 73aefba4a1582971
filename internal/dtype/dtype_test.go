package dtype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		want  int
	}{
		{"scalar", nil, 1},
		{"vector", []int{5}, 5},
		{"matrix", []int{3, 4}, 12},
		{"empty axis", []int{3, 0, 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Product(tt.shape))
		})
	}
}

func TestFlatten(t *testing.T) {
	t.Run("nested", func(t *testing.T) {
		flat, shape, err := Flatten([][]float64{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, shape)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, flat)
	})

	t.Run("three levels", func(t *testing.T) {
		flat, shape, err := Flatten([][][]int32{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 2}, shape)
		assert.Equal(t, []int32{1, 2, 3, 4, 5, 6, 7, 8}, flat)
	})

	t.Run("flat passthrough", func(t *testing.T) {
		in := []float32{1, 2, 3}
		flat, shape, err := Flatten(in)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, shape)
		assert.Equal(t, in, flat)
	})

	t.Run("scalar", func(t *testing.T) {
		flat, shape, err := Flatten(float64(2.5))
		require.NoError(t, err)
		assert.Empty(t, shape)
		assert.Equal(t, []float64{2.5}, flat)
	})

	t.Run("empty outer", func(t *testing.T) {
		flat, shape, err := Flatten([][]float64{})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0}, shape)
		assert.Len(t, flat, 0)
	})

	t.Run("ragged", func(t *testing.T) {
		_, _, err := Flatten([][]float64{{1, 2}, {3}})
		assert.Error(t, err)
	})

	t.Run("nil", func(t *testing.T) {
		_, _, err := Flatten(nil)
		assert.Error(t, err)
	})
}

func TestConvert(t *testing.T) {
	t.Run("float64 from float32", func(t *testing.T) {
		out, err := AsFloat64s([]float32{1.5, 2.5})
		require.NoError(t, err)
		assert.Equal(t, []float64{1.5, 2.5}, out)
	})

	t.Run("float64 same type", func(t *testing.T) {
		in := []float64{1, 2}
		out, err := AsFloat64s(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("int64 from int32", func(t *testing.T) {
		out, err := AsInt64s([]int32{-3, 7})
		require.NoError(t, err)
		assert.Equal(t, []int64{-3, 7}, out)
	})

	t.Run("int32 from int16", func(t *testing.T) {
		out, err := AsInt32s([]int16{2, 4})
		require.NoError(t, err)
		assert.Equal(t, []int32{2, 4}, out)
	})

	t.Run("float32 from float64", func(t *testing.T) {
		out, err := AsFloat32s([]float64{0.5})
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5}, out)
	})

	t.Run("strings exact type only", func(t *testing.T) {
		out, err := AsStrings([]string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, out)

		_, err = AsStrings([]float64{1})
		assert.Error(t, err)
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := AsFloat64s([]string{"x"})
		assert.Error(t, err)
	})

	t.Run("rejects non-slice", func(t *testing.T) {
		_, err := AsFloat64s(3.5)
		assert.Error(t, err)
	})
}

func TestGather(t *testing.T) {
	// shape (2, 3): [[1 2 3] [4 5 6]]
	in := []float64{1, 2, 3, 4, 5, 6}

	t.Run("leading axis", func(t *testing.T) {
		out, shape, err := Gather(in, []int{2, 3}, 0, []int{1})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, shape)
		assert.Equal(t, []float64{4, 5, 6}, out)
	})

	t.Run("inner axis reorder and repeat", func(t *testing.T) {
		out, shape, err := Gather(in, []int{2, 3}, 1, []int{2, 0, 2})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, shape)
		assert.Equal(t, []float64{3, 1, 3, 6, 4, 6}, out)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, _, err := Gather(in, []int{2, 3}, 1, []int{3})
		assert.Error(t, err)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, _, err := Gather(in, []int{2, 4}, 0, []int{0})
		assert.Error(t, err)
	})
}

func TestConcatAxis(t *testing.T) {
	t.Run("leading axis", func(t *testing.T) {
		out, shape, err := ConcatAxis(
			[]interface{}{[]float64{1, 2, 3, 4}, []float64{5, 6}},
			[][]int{{2, 2}, {1, 2}}, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2}, shape)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, out)
	})

	t.Run("inner axis interleaves", func(t *testing.T) {
		// (2,1) ++ (2,2) along axis 1 -> (2,3)
		out, shape, err := ConcatAxis(
			[]interface{}{[]float64{1, 4}, []float64{2, 3, 5, 6}},
			[][]int{{2, 1}, {2, 2}}, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, shape)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, out)
	})

	t.Run("off-axis size mismatch", func(t *testing.T) {
		_, _, err := ConcatAxis(
			[]interface{}{[]float64{1, 2}, []float64{1, 2, 3}},
			[][]int{{1, 2}, {1, 3}}, 0)
		assert.Error(t, err)
	})

	t.Run("mixed element types", func(t *testing.T) {
		_, _, err := ConcatAxis(
			[]interface{}{[]float64{1}, []float32{2}},
			[][]int{{1}, {1}}, 0)
		assert.Error(t, err)
	})

	t.Run("no parts", func(t *testing.T) {
		_, _, err := ConcatAxis(nil, nil, 0)
		assert.Error(t, err)
	})
}

func TestScatterAxis(t *testing.T) {
	t.Run("NaN fill", func(t *testing.T) {
		// rows 0 and 1 of a (2,2) value placed at 0 and 2 of a length-3 axis
		out, shape, err := ScatterAxis([]float64{1, 2, 3, 4}, []int{2, 2}, 0, []int{0, 2}, 3)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2}, shape)
		vals := out.([]float64)
		assert.Equal(t, []float64{1, 2}, vals[0:2])
		assert.True(t, math.IsNaN(vals[2]))
		assert.True(t, math.IsNaN(vals[3]))
		assert.Equal(t, []float64{3, 4}, vals[4:6])
	})

	t.Run("inner axis", func(t *testing.T) {
		out, shape, err := ScatterAxis([]float32{1, 2}, []int{2, 1}, 1, []int{1}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2}, shape)
		vals := out.([]float32)
		assert.True(t, math.IsNaN(float64(vals[0])))
		assert.Equal(t, float32(1), vals[1])
		assert.True(t, math.IsNaN(float64(vals[2])))
		assert.Equal(t, float32(2), vals[3])
	})

	t.Run("integers refuse", func(t *testing.T) {
		_, _, err := ScatterAxis([]int32{1, 2}, []int{2}, 0, []int{0, 1}, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NaN-fill")
	})

	t.Run("destination out of range", func(t *testing.T) {
		_, _, err := ScatterAxis([]float64{1}, []int{1}, 0, []int{3}, 2)
		assert.Error(t, err)
	})
}
