package ncio

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/hdf5"

	"github.com/HenrikJantti/xFELTOR/internal/dtype"
	"github.com/HenrikJantti/xFELTOR/internal/layout"
)

// Options configure how a single file is opened.
type Options struct {
	// Backend holds open-ended options forwarded to the backend. Known
	// keys: "engine" (auto, cdf, hdf5) and "group" (subgroup path).
	// Unknown keys are an error.
	Backend map[string]interface{}

	// Chunks sets per-dimension chunk sizes; a variable's reads are
	// windowed by its leading dimension's entry.
	Chunks map[string]int

	// ChunkSize is the uniform chunk size for dimensions without a
	// Chunks entry. Zero means each variable is read in one piece.
	ChunkSize int
}

// Var is one variable of an opened file.
type Var struct {
	Name   string
	Dims   []string
	Shape  []int
	Attrs  map[string]interface{}
	Layout layout.Layout
}

// File is one opened NetCDF input. Close releases the backend handle;
// lazy variables must not be read afterwards.
type File struct {
	Path  string
	Attrs map[string]interface{}
	Vars  []Var

	closeOnce sync.Once
	close     func()
}

// Close releases the backend handle. It is safe to call more than once.
func (f *File) Close() {
	f.closeOnce.Do(f.close)
}

// Open opens one NetCDF file and wires its variables to lazy backings.
func Open(path string, o Options) (*File, error) {
	engine, group, err := backendOptions(o.Backend)
	if err != nil {
		return nil, err
	}

	root, err := openEngine(engine, path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	g := root
	var sub api.Group
	if group != "" && group != "/" {
		sub, err = root.GetGroup(group)
		if err != nil {
			root.Close()
			return nil, fmt.Errorf("opening group %q in %s: %w", group, path, err)
		}
		g = sub
	}

	f := &File{
		Path:  path,
		Attrs: attrMap(g.Attributes()),
		close: func() {
			if sub != nil {
				sub.Close()
			}
			root.Close()
		},
	}

	for _, name := range g.ListVariables() {
		v, err := openVar(g, name, o)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		f.Vars = append(f.Vars, v)
	}
	return f, nil
}

func backendOptions(backend map[string]interface{}) (engine, group string, err error) {
	engine = "auto"
	keys := make([]string, 0, len(backend))
	for k := range backend {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case "engine", "group":
			s, ok := backend[k].(string)
			if !ok {
				return "", "", fmt.Errorf("backend option %q: want string, got %T", k, backend[k])
			}
			if k == "engine" {
				engine = s
			} else {
				group = s
			}
		default:
			return "", "", fmt.Errorf("unknown backend option %q", k)
		}
	}
	return engine, group, nil
}

func openEngine(engine, path string) (api.Group, error) {
	switch engine {
	case "", "auto":
		return netcdf.Open(path)
	case "cdf":
		return cdf.Open(path)
	case "hdf5":
		return hdf5.Open(path)
	default:
		return nil, fmt.Errorf("unknown engine %q (want auto, cdf or hdf5)", engine)
	}
}

func openVar(g api.Group, name string, o Options) (Var, error) {
	vg, err := g.GetVarGetter(name)
	if err != nil {
		return Var{}, fmt.Errorf("variable %q: %w", name, err)
	}
	dims := vg.Dimensions()
	attrs := attrMap(vg.Attributes())

	// Scalars and coordinate variables load eagerly; they are small and
	// the combine step needs coordinate values anyway.
	if len(dims) == 0 || (len(dims) == 1 && dims[0] == name) {
		raw, err := vg.Values()
		if err != nil {
			return Var{}, fmt.Errorf("variable %q: %w", name, err)
		}
		flat, shape, err := dtype.Flatten(raw)
		if err != nil {
			return Var{}, fmt.Errorf("variable %q: %w", name, err)
		}
		outer := 1
		if len(shape) == 1 {
			outer = shape[0]
		}
		mem, err := layout.NewMemory(flat, outer, 1)
		if err != nil {
			return Var{}, fmt.Errorf("variable %q: %w", name, err)
		}
		return Var{Name: name, Dims: dims, Shape: shape, Attrs: attrs, Layout: mem}, nil
	}

	outer := int(vg.Len())
	shape := []int{outer}
	block := 1
	if len(dims) > 1 {
		if outer == 0 {
			return Var{}, fmt.Errorf("variable %q: cannot determine shape of empty multi-dimensional variable", name)
		}
		probe, err := vg.GetSlice(0, 1)
		if err != nil {
			return Var{}, fmt.Errorf("variable %q: %w", name, err)
		}
		_, pshape, err := dtype.Flatten(probe)
		if err != nil {
			return Var{}, fmt.Errorf("variable %q: %w", name, err)
		}
		if len(pshape) > len(dims) {
			return Var{}, fmt.Errorf("variable %q: data rank %d exceeds dimensions %v", name, len(pshape), dims)
		}
		// Character data absorbs trailing dimensions into Go strings.
		dims = dims[:len(pshape)]
		shape = append(shape, pshape[1:]...)
		block = dtype.Product(pshape[1:])
	}

	chunk := o.ChunkSize
	if c, ok := o.Chunks[dims[0]]; ok {
		chunk = c
	}
	lay := layout.NewFile(vg, outer, block, chunk, goElemType(vg.GoType()))
	return Var{Name: name, Dims: dims, Shape: shape, Attrs: attrs, Layout: lay}, nil
}

func attrMap(am api.AttributeMap) map[string]interface{} {
	out := make(map[string]interface{})
	if am == nil {
		return out
	}
	for _, k := range am.Keys() {
		if v, has := am.Get(k); has {
			out[k] = v
		}
	}
	return out
}

func goElemType(name string) reflect.Type {
	switch name {
	case "int8", "byte":
		return reflect.TypeOf(int8(0))
	case "uint8", "ubyte":
		return reflect.TypeOf(uint8(0))
	case "int16", "short":
		return reflect.TypeOf(int16(0))
	case "uint16", "ushort":
		return reflect.TypeOf(uint16(0))
	case "int32", "int":
		return reflect.TypeOf(int32(0))
	case "uint32", "uint":
		return reflect.TypeOf(uint32(0))
	case "int64":
		return reflect.TypeOf(int64(0))
	case "uint64":
		return reflect.TypeOf(uint64(0))
	case "float32", "float":
		return reflect.TypeOf(float32(0))
	case "float64", "double":
		return reflect.TypeOf(float64(0))
	case "string", "char":
		return reflect.TypeOf("")
	}
	return nil
}
