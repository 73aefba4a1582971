// Package dtype moves variable data between the shapes the NetCDF backend
// speaks and the flat row-major form the dataset model stores.
//
// The backend returns multi-dimensional values as nested Go slices
// ([][]float64 and friends) whose element type depends on the on-disk type.
// Everything in this package operates on such dynamically typed values
// through reflection, so one implementation covers every supported element
// type.
//
// # Shapes
//
// A value's shape is the per-axis length of the nested slices; scalars have
// an empty shape. [Flatten] converts a nested value into a single flat slice
// in row-major order together with its shape, rejecting ragged input.
// [Product] gives the element count of a shape.
//
// # Axis operations
//
// The dataset transforms are built from three primitives that all work on
// flat row-major data plus a shape:
//
//   - [Gather]: select an arbitrary index list along one axis
//   - [ConcatAxis]: concatenate several values along one axis
//   - [ScatterAxis]: place rows of one axis at given positions in a wider
//     axis, filling the gaps with NaN (floating-point data only)
//
// # Conversion
//
// [AsFloat64s], [AsFloat32s], [AsInt64s], [AsInt32s] and [AsStrings] convert
// a flat value to a concrete slice type, widening or narrowing numeric
// element types with ordinary Go conversions. They return the input slice
// itself when it already has the requested type, so hot paths stay
// allocation free.
package dtype
