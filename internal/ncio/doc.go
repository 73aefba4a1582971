// Package ncio opens single NetCDF files through the go-native-netcdf
// backend and presents their contents as layout-backed variables.
//
// The backend reports dimension names but not dimension lengths, so the
// adapter derives each variable's shape from the getter's leading-axis
// length plus, for multi-dimensional variables, one probing read of the
// first row. Scalars and coordinate variables (1-D variables named after
// their dimension) are materialized eagerly; everything else stays lazy
// behind a file backing that honors the configured chunk sizes.
package ncio
