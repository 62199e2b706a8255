package filter

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/message"
)

// Pipeline applies a dataset's filters to chunk bytes. Entries keep the
// position of their message entry so filter mask bits line up; a skipped
// optional filter is a nil entry.
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds a pipeline from a filter pipeline message. A nil
// message yields an empty pipeline.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	if fp == nil {
		return &Pipeline{}, nil
	}
	p := &Pipeline{filters: make([]Filter, len(fp.Filters))}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		p.filters[i] = f
	}
	return p, nil
}

// Decode reverses the pipeline. Bit i of filterMask skips filter i.
func (p *Pipeline) Decode(input []byte, filterMask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		f := p.filters[i]
		if f == nil || filterMask&(1<<uint(i)) != 0 {
			continue
		}
		var err error
		if data, err = f.Decode(data); err != nil {
			return nil, fmt.Errorf("%s decode: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Encode runs every filter in order.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.filters {
		if f == nil {
			continue
		}
		var err error
		if data, err = f.Encode(data); err != nil {
			return nil, fmt.Errorf("%s encode: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Empty reports whether no filter would run.
func (p *Pipeline) Empty() bool {
	for _, f := range p.filters {
		if f != nil {
			return false
		}
	}
	return true
}

// Len returns the number of pipeline entries, skipped ones included.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
