package xfeltor

import (
	"fmt"
	"runtime"
)

// Engine selects the NetCDF backend used to open files.
type Engine string

// Supported engines.
const (
	EngineAuto Engine = "auto" // sniff classic CDF vs HDF5-backed NetCDF4
	EngineCDF  Engine = "cdf"
	EngineHDF5 Engine = "hdf5"
)

// ProbeMode selects how probe diagnostics are post-processed after the
// files are combined.
type ProbeMode int

const (
	// ProbesNone leaves probe variables untouched.
	ProbesNone ProbeMode = iota
	// ProbesGrid reshapes the flat probe variables onto a
	// (probe_y, probe_x, probe_time) grid and drops the flat probe
	// dimension.
	ProbesGrid
	// ProbesCoords attaches the probe position variables as
	// probe_x/probe_y coordinates on the probe-id dimension.
	ProbesCoords
)

// Option configures Open, OpenFiles and Combine.
type Option func(*options)

type options struct {
	chunkSize   int
	chunks      map[string]int
	keepRestart bool
	probes      ProbeMode
	probeDim    string
	probeXVar   string
	probeYVar   string
	backend     map[string]interface{}
	parallel    int
}

func defaultOptions() *options {
	return &options{
		probeDim:  "Probes",
		probeXVar: "px",
		probeYVar: "py",
		parallel:  1,
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.chunkSize < 0 {
		return nil, fmt.Errorf("chunk size %d: %w", o.chunkSize, ErrBadOption)
	}
	for dim, n := range o.chunks {
		if n < 0 {
			return nil, fmt.Errorf("chunk size %d for dimension %q: %w", n, dim, ErrBadOption)
		}
	}
	switch o.probes {
	case ProbesNone, ProbesGrid, ProbesCoords:
	default:
		return nil, fmt.Errorf("unknown probe mode %d: %w", o.probes, ErrBadOption)
	}
	if o.probeDim == "" || o.probeXVar == "" || o.probeYVar == "" {
		return nil, fmt.Errorf("empty probe name: %w", ErrBadOption)
	}
	return o, nil
}

// WithChunkSize sets a single chunk size for the leading dimension of
// every file-backed variable. Zero (the default) loads each variable
// in one piece.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithChunks sets per-dimension chunk sizes. A variable's reads are
// windowed by its leading dimension's entry; dimensions without an
// entry fall back to WithChunkSize.
func WithChunks(chunks map[string]int) Option {
	return func(o *options) {
		if o.chunks == nil {
			o.chunks = make(map[string]int)
		}
		for dim, n := range chunks {
			o.chunks[dim] = n
		}
	}
}

// KeepRestartIndices keeps duplicate time steps from restarted runs:
// the raw concatenation is returned without deduplication, inputfile
// promotion or probe handling.
func KeepRestartIndices() Option {
	return func(o *options) {
		o.keepRestart = true
	}
}

// WithProbes enables probe post-processing in the given mode. Any mode
// other than ProbesNone also switches the combine strategy to
// by-coords ordering.
func WithProbes(mode ProbeMode) Option {
	return func(o *options) {
		o.probes = mode
	}
}

// WithProbeDim sets the probe-id dimension used by ProbesCoords.
// The default is "Probes".
func WithProbeDim(name string) Option {
	return func(o *options) {
		o.probeDim = name
	}
}

// WithProbeVars sets the names of the probe position variables.
// The defaults are "px" and "py".
func WithProbeVars(x, y string) Option {
	return func(o *options) {
		o.probeXVar = x
		o.probeYVar = y
	}
}

// WithEngine selects the NetCDF backend engine. The default sniffs the
// format per file.
func WithEngine(e Engine) Option {
	return WithBackendOption("engine", string(e))
}

// WithGroup selects a subgroup path inside each file. The default is
// the root group.
func WithGroup(path string) Option {
	return WithBackendOption("group", path)
}

// WithBackendOption forwards a named option to the file-opening
// backend. Later values for the same name win. Unknown names are
// rejected when the file is opened.
func WithBackendOption(name string, value interface{}) Option {
	return func(o *options) {
		if o.backend == nil {
			o.backend = make(map[string]interface{})
		}
		o.backend[name] = value
	}
}

// WithParallel opens files concurrently with at most n opens in
// flight. n <= 0 means runtime.GOMAXPROCS(0). The default is
// sequential.
func WithParallel(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.parallel = n
	}
}
