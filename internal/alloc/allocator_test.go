package alloc

import (
	"testing"
)

func TestAllocatorAppendOnly(t *testing.T) {
	a := New(64)

	addr1 := a.Alloc(100, KindRecord)
	if addr1 != 64 {
		t.Errorf("first allocation: got 0x%x, want 0x%x", addr1, 64)
	}
	addr2 := a.Alloc(200, KindChunk)
	if addr2 != 164 {
		t.Errorf("second allocation: got 0x%x, want 0x%x", addr2, 164)
	}
	if a.EOF() != 364 {
		t.Errorf("EOF: got 0x%x, want 0x%x", a.EOF(), 364)
	}

	a.Free(addr1, 100)
	addr3 := a.Alloc(50, KindRecord)
	if addr3 != 364 {
		t.Errorf("freed space must not be reused: got 0x%x", addr3)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestAllocatorZeroSize(t *testing.T) {
	a := New(100)
	if addr := a.Alloc(0, KindChunk); addr != 100 {
		t.Errorf("zero allocation: got 0x%x, want 0x%x", addr, 100)
	}
	if a.EOF() != 100 {
		t.Errorf("EOF after zero alloc: got 0x%x, want 0x%x", a.EOF(), 100)
	}
}

func TestAllocatorStats(t *testing.T) {
	a := New(0)
	a.Alloc(10, KindRecord)
	a.Alloc(30, KindChunk)
	a.Alloc(5, KindTable)
	a.Free(0, 10)

	s := a.Stats()
	if s.Allocations != 3 {
		t.Errorf("Allocations = %d, want 3", s.Allocations)
	}
	if s.BytesAlloc != 45 {
		t.Errorf("BytesAlloc = %d, want 45", s.BytesAlloc)
	}
	if s.BytesFree != 10 {
		t.Errorf("BytesFree = %d, want 10", s.BytesFree)
	}
	if s.ByKind[KindChunk] != 30 {
		t.Errorf("chunk bytes = %d, want 30", s.ByKind[KindChunk])
	}
	if len(a.Freed()) != 1 {
		t.Errorf("Freed() has %d blocks, want 1", len(a.Freed()))
	}
}

func TestAllocatorSetEOF(t *testing.T) {
	a := New(64)
	a.SetEOF(4096)
	if addr := a.Alloc(8, KindRecord); addr != 4096 {
		t.Errorf("allocation after SetEOF: got 0x%x", addr)
	}
	a.SetEOF(10)
	if a.EOF() != 64 {
		t.Errorf("SetEOF below base: got 0x%x, want 0x%x", a.EOF(), 64)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindRecord, "record"},
		{KindChunk, "chunk"},
		{KindTable, "table"},
		{Kind(9), "kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
