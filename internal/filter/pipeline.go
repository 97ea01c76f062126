package filter

import (
	"fmt"
)

// Pipeline applies a dataset's filters to chunk data.
type Pipeline struct {
	infos   []Info
	filters []Filter // nil entry: optional filter that is not registered
}

// NewPipeline builds a pipeline from filter descriptions.
func NewPipeline(infos []Info, elemSize int) (*Pipeline, error) {
	p := &Pipeline{
		infos:   infos,
		filters: make([]Filter, len(infos)),
	}
	for i, info := range infos {
		f, err := New(info, elemSize)
		if err != nil {
			return nil, fmt.Errorf("creating filter %d: %w", info.ID, err)
		}
		p.filters[i] = f
	}
	return p, nil
}

// Encode applies the filters in order. The returned mask has bit i set
// for every optional filter that was skipped.
func (p *Pipeline) Encode(input []byte) ([]byte, uint32, error) {
	data := input
	var mask uint32
	for i, f := range p.filters {
		if f == nil {
			mask |= 1 << uint(i)
			continue
		}
		out, err := f.Encode(data)
		if err != nil {
			if p.infos[i].IsOptional() {
				mask |= 1 << uint(i)
				continue
			}
			return nil, 0, fmt.Errorf("filter %d encode: %w", f.ID(), err)
		}
		data = out
	}
	return data, mask, nil
}

// Decode applies the filter pipeline to encoded data.
// The filterMask specifies which filters to skip (bit i = skip filter i).
// Filters are applied in reverse order (last filter first).
func (p *Pipeline) Decode(input []byte, filterMask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		if filterMask&(1<<uint(i)) != 0 {
			continue
		}
		f := p.filters[i]
		if f == nil {
			return nil, &UnavailableError{ID: p.infos[i].ID}
		}
		var err error
		data, err = f.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d decode: %w", f.ID(), err)
		}
	}
	return data, nil
}

// Infos returns the filter descriptions.
func (p *Pipeline) Infos() []Info {
	return p.infos
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
