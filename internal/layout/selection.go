package layout

import (
	"fmt"
	"reflect"
)

// Selection reorders or subsets the leading axis of another backing with an
// explicit index list.
type Selection struct {
	src Layout
	idx []int
}

// NewSelection wraps src with an index list over its leading axis.
func NewSelection(src Layout, idx []int) (*Selection, error) {
	for _, i := range idx {
		if i < 0 || i >= src.OuterLen() {
			return nil, fmt.Errorf("selection index %d out of range (outer length %d)", i, src.OuterLen())
		}
	}
	return &Selection{src: src, idx: append([]int(nil), idx...)}, nil
}

// OuterLen returns the number of selected rows.
func (s *Selection) OuterLen() int { return len(s.idx) }

// BlockLen returns the elements per leading-axis row.
func (s *Selection) BlockLen() int { return s.src.BlockLen() }

// Elem returns the underlying element type.
func (s *Selection) Elem() reflect.Type { return s.src.Elem() }

// Read materializes every selected row in selection order.
func (s *Selection) Read() (interface{}, error) {
	return s.ReadOuter(0, len(s.idx))
}

// ReadOuter materializes a range of the selection. Runs of consecutive
// source indices collapse into single ranged reads of the source.
func (s *Selection) ReadOuter(start, count int) (interface{}, error) {
	if err := checkRange(start, count, len(s.idx)); err != nil {
		return nil, err
	}
	if count == 0 {
		return emptySlice(s.Elem())
	}

	sub := s.idx[start : start+count]
	var out reflect.Value
	for i := 0; i < len(sub); {
		j := i + 1
		for j < len(sub) && sub[j] == sub[j-1]+1 {
			j++
		}
		flat, err := s.src.ReadOuter(sub[i], j-i)
		if err != nil {
			return nil, err
		}
		if j-i == count {
			return flat, nil
		}
		out, err = appendFlat(out, flat, count*s.BlockLen())
		if err != nil {
			return nil, err
		}
		i = j
	}
	return out.Interface(), nil
}
