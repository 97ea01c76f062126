// Package fixture provides helpers for tests that write fast5 files.
package fixture

import (
	"github.com/google/uuid"

	"github.com/robert-malhotra/go-fast5/internal/filter"
)

// vbz stands in for the native VBZ codec with zstd, so tests can write and
// read filter 32020 without the plugin installed.
type vbz struct {
	inner filter.Filter
}

func (v *vbz) ID() uint16 { return filter.IDVBZ }

func (v *vbz) Encode(b []byte) ([]byte, error) { return v.inner.Encode(b) }

func (v *vbz) Decode(b []byte) ([]byte, error) { return v.inner.Decode(b) }

// RegisterVBZ registers the stand-in codec for filter 32020. Calling it
// again after filter.Unregister restores it.
func RegisterVBZ() {
	filter.Register(filter.IDVBZ, "vbz", func(cd []uint32, elemSize int) (filter.Filter, error) {
		level := uint32(1)
		if len(cd) == 4 {
			level = max(1, cd[3])
		}
		inner, err := filter.New(filter.Info{ID: filter.IDZstd, ClientData: []uint32{level}}, elemSize)
		if err != nil {
			return nil, err
		}
		return &vbz{inner: inner}, nil
	})
}

// ReadID returns a random read id.
func ReadID() string {
	return uuid.NewString()
}

// ReadIDs returns n random read ids.
func ReadIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = ReadID()
	}
	return ids
}

// Ramp returns the samples 0, 1, ..., n-1.
func Ramp(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(i)
	}
	return s
}
