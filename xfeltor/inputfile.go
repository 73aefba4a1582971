package xfeltor

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// dedupIndices returns, for each distinct time value in ascending
// order, the index of its first occurrence in the time coordinate.
// Restarted runs repeat the restart step's time value; the earlier
// file's frame wins. NaN values never compare equal and are all kept,
// ordered last.
func dedupIndices(d *Dataset) ([]int, error) {
	v := d.Var(timeDim)
	if v == nil {
		return nil, fmt.Errorf("deduplicating %q: %w", timeDim, ErrMissingVariable)
	}
	vals, err := v.Float64s()
	if err != nil {
		return nil, fmt.Errorf("deduplicating %q: %w", timeDim, err)
	}

	pos := make([]int, len(vals))
	for i := range pos {
		pos[i] = i
	}
	sort.Slice(pos, func(a, b int) bool {
		va, vb := vals[pos[a]], vals[pos[b]]
		na, nb := math.IsNaN(va), math.IsNaN(vb)
		switch {
		case na && nb:
			return pos[a] < pos[b]
		case na:
			return false
		case nb:
			return true
		case va != vb:
			return va < vb
		}
		return pos[a] < pos[b]
	})

	var idx []int
	for i, p := range pos {
		if i > 0 && vals[p] == vals[pos[i-1]] {
			continue
		}
		idx = append(idx, p)
	}
	return idx, nil
}

// promoteInputfile parses the dataset's inputfile attribute as one
// JSON object and promotes every key into the dataset attributes,
// overwriting same-name attributes. Keys are applied in sorted order.
func promoteInputfile(d *Dataset) error {
	raw, ok := d.Attr("inputfile")
	if !ok {
		return ErrMissingInputfile
	}
	var text string
	switch s := raw.(type) {
	case string:
		text = s
	case []string:
		if len(s) != 1 {
			return fmt.Errorf("inputfile attribute holds %d strings, want 1", len(s))
		}
		text = s[0]
	default:
		return fmt.Errorf("inputfile attribute is %T, want string", raw)
	}

	var params map[string]interface{}
	if err := json.Unmarshal([]byte(text), &params); err != nil {
		return fmt.Errorf("parsing inputfile attribute: %w", err)
	}
	if params == nil {
		return fmt.Errorf("inputfile attribute is not a JSON object")
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.SetAttr(k, params[k])
	}
	return nil
}
