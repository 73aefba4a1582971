package xfeltor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/HenrikJantti/xFELTOR/internal/ncio"
)

// timeDim is the record dimension FELTOR output is concatenated along.
const timeDim = "time"

// Open loads FELTOR output matching a glob pattern into one dataset.
// Matches are sorted lexically, opened and concatenated along the time
// dimension. Duplicate time steps from restarted runs are dropped,
// keeping the first occurrence of each time value in ascending-value
// order, and the simulation's JSON inputfile attribute is promoted
// into the dataset attributes. An empty pattern means DefaultPattern.
func Open(pattern string, opts ...Option) (*Dataset, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("globbing %q: %w", pattern, ErrNoFilesMatched)
	}
	sort.Strings(paths)
	return openFiles(paths, o)
}

// OpenFiles loads an explicit ordered list of files. The order is the
// concatenation order unless a probe mode switches the combination to
// by-coords.
func OpenFiles(paths []string, opts ...Option) (*Dataset, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoInputs
	}
	return openFiles(paths, o)
}

// Combine runs the loader pipeline over already-open datasets:
// concatenation along time, restart deduplication, inputfile promotion
// and probe handling. Once combination succeeds the returned dataset
// owns the inputs' file handles; on a combination error they remain
// the caller's to close.
func Combine(datasets []*Dataset, opts ...Option) (*Dataset, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return finalize(datasets, o)
}

func openFiles(paths []string, o *options) (*Dataset, error) {
	datasets, err := openAll(paths, o)
	if err != nil {
		return nil, err
	}
	ds, err := finalize(datasets, o)
	if err != nil {
		closeAll(datasets)
		return nil, err
	}
	return ds, nil
}

// finalize applies the post-open pipeline: combine, then unless
// KeepRestartIndices was given, dedup + promotion + probes + time
// selection. On a pipeline error the combined dataset is closed.
func finalize(inputs []*Dataset, o *options) (*Dataset, error) {
	ds, err := combine(inputs, o.probes != ProbesNone)
	if err != nil {
		return nil, err
	}
	if o.keepRestart {
		return ds, nil
	}
	idx, err := dedupIndices(ds)
	if err != nil {
		ds.Close()
		return nil, err
	}
	if err := promoteInputfile(ds); err != nil {
		ds.Close()
		return nil, err
	}
	if err := applyProbes(ds, o); err != nil {
		ds.Close()
		return nil, err
	}
	if err := ds.Isel(timeDim, idx); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

// openAll opens every path, sequentially by default or with at most
// o.parallel opens in flight. Results keep input order.
func openAll(paths []string, o *options) ([]*Dataset, error) {
	datasets := make([]*Dataset, len(paths))
	if o.parallel <= 1 {
		for i, path := range paths {
			ds, err := openOne(path, o)
			if err != nil {
				closeAll(datasets)
				return nil, err
			}
			datasets[i] = ds
		}
		return datasets, nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(o.parallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := openOne(path, o)
			if err != nil {
				return err
			}
			datasets[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		closeAll(datasets)
		return nil, err
	}
	return datasets, nil
}

// openOne opens a single file through the adapter and wraps it in a
// Dataset.
func openOne(path string, o *options) (*Dataset, error) {
	f, err := ncio.Open(path, ncio.Options{
		Backend:   o.backend,
		Chunks:    o.chunks,
		ChunkSize: o.chunkSize,
	})
	if err != nil {
		return nil, err
	}
	ds := NewDataset()
	ds.addCloser(f.Close)
	for k, v := range f.Attrs {
		ds.attrs[k] = v
	}
	for _, nv := range f.Vars {
		v := &Variable{
			name:  nv.Name,
			dims:  nv.Dims,
			shape: nv.Shape,
			attrs: nv.Attrs,
			data:  nv.Layout,
			coord: len(nv.Dims) == 1 && nv.Dims[0] == nv.Name,
		}
		if err := ds.addVar(v); err != nil {
			ds.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return ds, nil
}

func closeAll(datasets []*Dataset) {
	for _, ds := range datasets {
		if ds != nil {
			ds.Close()
		}
	}
}
