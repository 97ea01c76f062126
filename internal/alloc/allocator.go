// Package alloc tracks space in a container file. Allocation is
// append-only: superseded blocks are recorded as free so the store can
// report how much of a file is garbage, but they are never reused within
// a session because the previous object table may still point at them.
package alloc

import (
	"fmt"
	"sync"
)

// Kind classifies an allocation.
type Kind uint8

const (
	KindRecord Kind = iota // object record (group or dataset header)
	KindChunk              // encoded dataset chunk
	KindTable              // object table
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindChunk:
		return "chunk"
	case KindTable:
		return "table"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Block is an address range in the file.
type Block struct {
	Addr uint64
	Size uint64
	Kind Kind
}

// End returns the first address past the block.
func (b Block) End() uint64 {
	return b.Addr + b.Size
}

// Stats contains allocation statistics for the current session.
type Stats struct {
	Allocations uint64
	BytesAlloc  uint64
	BytesFree   uint64
	ByKind      map[Kind]uint64
}

// Allocator hands out addresses at the end of the file.
type Allocator struct {
	mu sync.Mutex

	base  uint64
	eof   uint64
	live  []Block
	freed []Block
	stats Stats
}

// New creates an Allocator whose first allocation goes to base.
func New(base uint64) *Allocator {
	return &Allocator{
		base:  base,
		eof:   base,
		stats: Stats{ByKind: make(map[Kind]uint64)},
	}
}

// Alloc reserves size bytes at the end of the file.
func (a *Allocator) Alloc(size uint64, kind Kind) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr := a.eof
	if size == 0 {
		return addr
	}
	a.eof += size
	a.live = append(a.live, Block{Addr: addr, Size: size, Kind: kind})
	a.stats.Allocations++
	a.stats.BytesAlloc += size
	a.stats.ByKind[kind] += size
	return addr
}

// Free records that a block is no longer referenced.
func (a *Allocator) Free(addr, size uint64) {
	if size == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.freed = append(a.freed, Block{Addr: addr, Size: size})
	a.stats.BytesFree += size
}

// EOF returns the current end-of-file address.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// SetEOF moves the allocation point, used when reopening an existing file.
func (a *Allocator) SetEOF(addr uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if addr < a.base {
		addr = a.base
	}
	a.eof = addr
}

// Base returns the first allocatable address.
func (a *Allocator) Base() uint64 {
	return a.base
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.ByKind = make(map[Kind]uint64, len(a.stats.ByKind))
	for k, v := range a.stats.ByKind {
		s.ByKind[k] = v
	}
	return s
}

// Freed returns a copy of the freed blocks.
func (a *Allocator) Freed() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Block, len(a.freed))
	copy(out, a.freed)
	return out
}

// Validate checks that this session's allocations are in bounds and
// do not overlap.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, b := range a.live {
		if b.Addr < a.base {
			return fmt.Errorf("%s block at 0x%x is before base address 0x%x", b.Kind, b.Addr, a.base)
		}
		if b.End() > a.eof {
			return fmt.Errorf("%s block at 0x%x size %d extends past EOF 0x%x", b.Kind, b.Addr, b.Size, a.eof)
		}
		if i > 0 && a.live[i-1].End() > b.Addr {
			return fmt.Errorf("overlapping blocks at 0x%x and 0x%x", a.live[i-1].Addr, b.Addr)
		}
	}
	return nil
}
