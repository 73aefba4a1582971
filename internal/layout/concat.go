package layout

import (
	"fmt"
	"reflect"
)

// Concat glues backings along the leading axis, in order.
type Concat struct {
	sections []Layout
	outer    int
	block    int
}

// NewConcat combines sections into one backing. All sections must agree on
// the block length.
func NewConcat(sections []Layout) (*Concat, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("concat backing needs at least one section")
	}
	block := sections[0].BlockLen()
	outer := 0
	for i, s := range sections {
		if s.BlockLen() != block {
			return nil, fmt.Errorf("section %d has block length %d, want %d", i, s.BlockLen(), block)
		}
		outer += s.OuterLen()
	}
	return &Concat{sections: sections, outer: outer, block: block}, nil
}

// OuterLen returns the summed leading-axis length.
func (c *Concat) OuterLen() int { return c.outer }

// BlockLen returns the elements per leading-axis row.
func (c *Concat) BlockLen() int { return c.block }

// Elem returns the first known element type among the sections.
func (c *Concat) Elem() reflect.Type {
	for _, s := range c.sections {
		if t := s.Elem(); t != nil {
			return t
		}
	}
	return nil
}

// Read materializes all sections in order.
func (c *Concat) Read() (interface{}, error) {
	return c.ReadOuter(0, c.outer)
}

// ReadOuter materializes a row range, touching only the sections the range
// overlaps.
func (c *Concat) ReadOuter(start, count int) (interface{}, error) {
	if err := checkRange(start, count, c.outer); err != nil {
		return nil, err
	}
	if count == 0 {
		return emptySlice(c.Elem())
	}

	var out reflect.Value
	offset := 0
	remaining := count
	for _, s := range c.sections {
		secLen := s.OuterLen()
		if start >= offset+secLen {
			offset += secLen
			continue
		}
		local := start - offset
		n := secLen - local
		if n > remaining {
			n = remaining
		}
		flat, err := s.ReadOuter(local, n)
		if err != nil {
			return nil, err
		}
		if n == count {
			return flat, nil
		}
		out, err = appendFlat(out, flat, count*c.block)
		if err != nil {
			return nil, err
		}
		remaining -= n
		start += n
		offset += secLen
		if remaining == 0 {
			break
		}
	}
	return out.Interface(), nil
}
