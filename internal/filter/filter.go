package filter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Filter IDs
const (
	IDDeflate    uint16 = 1
	IDShuffle    uint16 = 2
	IDFletcher32 uint16 = 3
	IDLZ4        uint16 = 32004
	IDZstd       uint16 = 32015
	IDVBZ        uint16 = 32020
)

// FlagOptional marks a filter that may be skipped when it fails or is
// not available.
const FlagOptional uint16 = 0x01

// ErrUnavailable is returned when a dataset needs a filter that is not
// registered.
var ErrUnavailable = errors.New("filter not available")

// Info describes a single filter in a dataset's pipeline.
type Info struct {
	ID         uint16
	Flags      uint16
	ClientData []uint32
}

// IsOptional returns true if this filter is optional.
func (f Info) IsOptional() bool {
	return f.Flags&FlagOptional != 0
}

// Equal compares id, flags and client data.
func (f Info) Equal(o Info) bool {
	if f.ID != o.ID || f.Flags != o.Flags || len(f.ClientData) != len(o.ClientData) {
		return false
	}
	for i, v := range f.ClientData {
		if o.ClientData[i] != v {
			return false
		}
	}
	return true
}

func (f Info) String() string {
	return fmt.Sprintf("%s%v", Name(f.ID), f.ClientData)
}

// Filter is the interface implemented by all filters.
type Filter interface {
	// ID returns the filter identifier.
	ID() uint16

	// Encode transforms chunk bytes to their stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored bytes back to chunk bytes.
	Decode(input []byte) ([]byte, error)
}

// Constructor builds a filter from its client data. elemSize is the
// dataset element size in bytes.
type Constructor func(clientData []uint32, elemSize int) (Filter, error)

type registration struct {
	name string
	ctor Constructor
}

var (
	mu       sync.RWMutex
	registry = map[uint16]registration{
		IDDeflate:    {"deflate", newDeflate},
		IDShuffle:    {"shuffle", newShuffle},
		IDFletcher32: {"fletcher32", newFletcher32},
		IDLZ4:        {"lz4", newLZ4},
		IDZstd:       {"zstd", newZstd},
	}
)

// knownNames names well-known filters that are not built in, for messages.
var knownNames = map[uint16]string{
	4:     "szip",
	5:     "nbit",
	6:     "scaleoffset",
	32001: "blosc",
	32008: "bitshuffle",
	IDVBZ: "vbz",
	32026: "blosc2",
}

// Register adds or replaces the constructor for a filter ID.
func Register(id uint16, name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[id] = registration{name: name, ctor: ctor}
}

// Unregister removes a filter so datasets that need it fail with
// ErrUnavailable.
func Unregister(id uint16) {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, id)
}

// Available reports whether a filter ID is registered.
func Available(id uint16) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[id]
	return ok
}

// Registered returns the registered filter IDs in ascending order.
func Registered() []uint16 {
	mu.RLock()
	defer mu.RUnlock()
	ids := make([]uint16, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Name returns a human readable name for a filter ID.
func Name(id uint16) string {
	mu.RLock()
	reg, ok := registry[id]
	mu.RUnlock()
	if ok {
		return reg.name
	}
	if name, known := knownNames[id]; known {
		return name
	}
	return fmt.Sprintf("filter-%d", id)
}

// New creates a filter from an Info. An optional filter that is not
// registered yields a nil Filter and no error.
func New(info Info, elemSize int) (Filter, error) {
	mu.RLock()
	reg, ok := registry[info.ID]
	mu.RUnlock()
	if !ok {
		if info.IsOptional() {
			return nil, nil
		}
		return nil, &UnavailableError{ID: info.ID}
	}
	return reg.ctor(info.ClientData, elemSize)
}

// UnavailableError reports a mandatory filter that is not registered.
type UnavailableError struct {
	ID uint16
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s filter (id=%d) is not available; searched plugin path %q", Name(e.ID), e.ID, PluginPath())
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}
