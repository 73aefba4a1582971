// Package xfeltor loads FELTOR simulation output into one labeled dataset.
// It opens a single NetCDF file or multiple coherent files from restarted
// runs, concatenates them along the time dimension, drops duplicate time
// steps, and promotes the simulation's JSON input file into the dataset
// attributes.
package xfeltor

import "errors"

// Common errors
var (
	ErrNoFilesMatched   = errors.New("no files matched pattern")
	ErrNoInputs         = errors.New("no datasets to combine")
	ErrMissingInputfile = errors.New("missing inputfile attribute")
	ErrMissingVariable  = errors.New("variable not found")
	ErrDimNotFound      = errors.New("dimension not found")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrAlignment        = errors.New("datasets do not align")
	ErrClosed           = errors.New("dataset is closed")
	ErrBadOption        = errors.New("invalid option")
)

// DefaultPattern is the glob Open falls back to when called with an
// empty pattern.
const DefaultPattern = "./*.nc"
