package fast5

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

// Compression describes how a raw signal dataset is compressed: a filter
// id and its parameters.
type Compression struct {
	Name    string
	ID      uint16
	Options []uint32
}

// Registered compressions. VBZ options are version, integer packing,
// zig-zag and zstd level.
var (
	VBZ      = Compression{Name: "vbz", ID: filter.IDVBZ, Options: []uint32{0, 2, 1, 1}}
	VBZAlpha = Compression{Name: "vbz_v1.alpha", ID: filter.IDVBZ, Options: []uint32{1, 2, 1, 1}}
	Gzip     = Compression{Name: "gzip", ID: filter.IDDeflate, Options: []uint32{1}}

	// NoCompression stores raw data without filters.
	NoCompression = Compression{Name: "none"}
)

var compressions = map[string]Compression{
	VBZ.Name:      VBZ,
	VBZAlpha.Name: VBZAlpha,
	Gzip.Name:     Gzip,
}

// LookupCompression returns the registered compression with the given name.
func LookupCompression(name string) (Compression, error) {
	c, ok := compressions[name]
	if !ok {
		return Compression{}, fmt.Errorf("unknown compression %q, expected one of %s",
			name, strings.Join(CompressionNames(), ", "))
	}
	return c, nil
}

// CompressionNames lists the registered compression names.
func CompressionNames() []string {
	names := make([]string, 0, len(compressions))
	for name := range compressions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Compression) String() string {
	return c.Name
}

// IsNone reports whether c stores data unfiltered.
func (c Compression) IsNone() bool {
	return c.ID == 0
}

// Available returns a *MissingCodecError when the filter c writes with is
// not registered.
func (c Compression) Available() error {
	if c.IsNone() || filter.Available(c.ID) {
		return nil
	}
	return wrapCodecError(&filter.UnavailableError{ID: c.ID})
}

// Equal compares filter id and options.
func (c Compression) Equal(o Compression) bool {
	return c.ID == o.ID && slices.Equal(c.Options, o.Options)
}

// Info returns the filter description for c.
func (c Compression) Info() filter.Info {
	return filter.Info{ID: c.ID, ClientData: slices.Clone(c.Options)}
}

// Matches reports whether a dataset filter pipeline applies c.
func (c Compression) Matches(filters []filter.Info) bool {
	if c.IsNone() {
		return len(filters) == 0
	}
	for _, f := range filters {
		if f.ID == c.ID && slices.Equal(f.ClientData, c.Options) {
			return true
		}
	}
	return false
}

func (c Compression) datasetOptions() []store.DatasetOption {
	if c.IsNone() {
		return nil
	}
	return []store.DatasetOption{store.WithFilters(c.Info())}
}

// DetectCompression matches a filter pipeline against the registered
// compressions.
func DetectCompression(filters []filter.Info) (Compression, bool) {
	for _, name := range CompressionNames() {
		if c := compressions[name]; c.Matches(filters) {
			return c, true
		}
	}
	if len(filters) == 0 {
		return NoCompression, true
	}
	return Compression{}, false
}

// DescribeFilters renders a filter pipeline, using the compression name
// when it matches a registered one.
func DescribeFilters(filters []filter.Info) string {
	if c, ok := DetectCompression(filters); ok {
		return c.Name
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}
