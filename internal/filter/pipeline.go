package filter

import (
	"errors"
	"fmt"

	"github.com/dream3d/h5support/internal/message"
)

// Pipeline is an ordered list of filters built from a pipeline message.
type Pipeline struct {
	filters  []Filter
	optional []bool
}

// Build instantiates every filter of p.
func Build(p *message.Pipeline, elemSize int) (*Pipeline, error) {
	out := &Pipeline{}
	if p == nil {
		return out, nil
	}
	for _, spec := range p.Filters {
		f, err := New(spec, elemSize)
		if err != nil {
			return nil, err
		}
		out.filters = append(out.filters, f)
		out.optional = append(out.optional, spec.Flags&message.FilterOptional != 0)
	}
	return out, nil
}

// Len returns the number of filters.
func (p *Pipeline) Len() int { return len(p.filters) }

// Encode runs the filters in order and returns the encoded chunk and the
// mask of skipped filters.
func (p *Pipeline) Encode(data []byte) ([]byte, uint32, error) {
	var mask uint32
	for i, f := range p.filters {
		out, err := f.Encode(data)
		if err != nil {
			if p.optional[i] || errors.Is(err, errNoGain) {
				mask |= 1 << uint(i)
				continue
			}
			return nil, 0, fmt.Errorf("%s filter: %w", Name(f.ID()), err)
		}
		data = out
	}
	return data, mask, nil
}

// Decode undoes Encode, skipping filters whose mask bit is set.
func (p *Pipeline) Decode(data []byte, mask uint32) ([]byte, error) {
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			continue
		}
		out, err := p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s filter: %w", Name(p.filters[i].ID()), err)
		}
		data = out
	}
	return data, nil
}
