package store

import "github.com/robert-malhotra/go-fast5/internal/filter"

// DatasetOption configures dataset creation options.
type DatasetOption func(*datasetOptions)

// attrDef holds an attribute definition for creation.
type attrDef struct {
	name  string
	value any
}

type datasetOptions struct {
	chunkRows  uint64
	filters    []filter.Info
	attributes []attrDef
}

// defaultChunkBytes is the target chunk size when filters are present and
// no chunk size was given.
const defaultChunkBytes = 1 << 20

// WithChunkRows sets the number of first-dimension rows per chunk.
func WithChunkRows(rows uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.chunkRows = rows
	}
}

// WithFilters appends filters to the dataset's pipeline, in order.
func WithFilters(infos ...filter.Info) DatasetOption {
	return func(o *datasetOptions) {
		o.filters = append(o.filters, infos...)
	}
}

// WithDeflate adds the DEFLATE filter at the given level (0-9).
func WithDeflate(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.filters = append(o.filters, filter.Info{ID: filter.IDDeflate, ClientData: []uint32{uint32(level)}})
		}
	}
}

// WithShuffle adds the shuffle filter.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.filters = append(o.filters, filter.Info{ID: filter.IDShuffle})
	}
}

// WithFletcher32 adds Fletcher32 checksum validation.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.filters = append(o.filters, filter.Info{ID: filter.IDFletcher32})
	}
}

// WithAttribute adds an attribute to the dataset.
func WithAttribute(name string, value any) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}
