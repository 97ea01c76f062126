package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf Buffer
	w := NewWriter(&buf, DefaultConfig())

	if err := w.WriteUint8(0x12); err != nil {
		t.Fatalf("WriteUint8 failed: %v", err)
	}
	if err := w.WriteUint16(0x3456); err != nil {
		t.Fatalf("WriteUint16 failed: %v", err)
	}
	if err := w.WriteUint32(0x789abcde); err != nil {
		t.Fatalf("WriteUint32 failed: %v", err)
	}
	if err := w.WriteUint64(0x0102030405060708); err != nil {
		t.Fatalf("WriteUint64 failed: %v", err)
	}
	if err := w.WriteFloat64(819.2); err != nil {
		t.Fatalf("WriteFloat64 failed: %v", err)
	}
	if err := w.WriteString("Read_12"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	if err := w.WriteBlob([]byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBlob failed: %v", err)
	}
	if w.Pos() != int64(buf.Len()) {
		t.Errorf("Pos() = %d, want %d", w.Pos(), buf.Len())
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), DefaultConfig())
	if v, _ := r.ReadUint8(); v != 0x12 {
		t.Errorf("ReadUint8 = 0x%x", v)
	}
	if v, _ := r.ReadUint16(); v != 0x3456 {
		t.Errorf("ReadUint16 = 0x%x", v)
	}
	if v, _ := r.ReadUint32(); v != 0x789abcde {
		t.Errorf("ReadUint32 = 0x%x", v)
	}
	if v, _ := r.ReadUint64(); v != 0x0102030405060708 {
		t.Errorf("ReadUint64 = 0x%x", v)
	}
	if v, _ := r.ReadFloat64(); v != 819.2 {
		t.Errorf("ReadFloat64 = %v", v)
	}
	if v, _ := r.ReadString(); v != "Read_12" {
		t.Errorf("ReadString = %q", v)
	}
	blob, err := r.ReadBlob()
	if err != nil {
		t.Fatalf("ReadBlob failed: %v", err)
	}
	if !bytes.Equal(blob, []byte{1, 2, 3}) {
		t.Errorf("ReadBlob = %v", blob)
	}
}

func TestLittleEndianLayout(t *testing.T) {
	var buf Buffer
	w := NewWriter(&buf, DefaultConfig())
	if err := w.WriteUint32(0x01020304); err != nil {
		t.Fatalf("WriteUint32 failed: %v", err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestWriterAt(t *testing.T) {
	var buf Buffer
	w := NewWriter(&buf, DefaultConfig())
	if err := w.At(4).WriteUint8(0xff); err != nil {
		t.Fatalf("WriteUint8 failed: %v", err)
	}
	if buf.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", buf.Len())
	}
	if err := w.WriteZeros(2); err != nil {
		t.Fatalf("WriteZeros failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0, 0, 0, 0, 0xff}) {
		t.Errorf("got %v", buf.Bytes())
	}
}

func TestReaderShortRecord(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}), DefaultConfig())
	_, err := r.ReadUint32()
	if !errors.Is(err, ErrShortRecord) {
		t.Fatalf("expected ErrShortRecord, got %v", err)
	}
}

func TestReaderAtAndSkip(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5}
	r := NewReader(bytes.NewReader(data), DefaultConfig())
	r2 := r.At(3)
	v, err := r2.ReadUint8()
	if err != nil || v != 3 {
		t.Fatalf("ReadUint8 at 3 = %d, %v", v, err)
	}
	if r.Pos() != 0 {
		t.Errorf("original reader moved to %d", r.Pos())
	}
	r.Skip(5)
	if v, _ := r.ReadUint8(); v != 5 {
		t.Errorf("after Skip got %d", v)
	}
}

func TestLookup3ChecksumLengthVariations(t *testing.T) {
	checksums := make(map[uint32]int)
	for length := 0; length <= 24; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		checksums[Lookup3Checksum(data)] = length
	}
	if len(checksums) != 25 {
		t.Errorf("expected 25 unique checksums for lengths 0-24, got %d", len(checksums))
	}
}

func TestVerifyLookup3(t *testing.T) {
	data := []byte("UniqueGlobalKey")
	sum := Lookup3Checksum(data)
	if !VerifyLookup3(data, sum) {
		t.Error("VerifyLookup3 rejected its own checksum")
	}
	if VerifyLookup3(data, sum+1) {
		t.Error("VerifyLookup3 accepted a wrong checksum")
	}
}

func TestFletcher32OddLength(t *testing.T) {
	if Fletcher32([]byte{0x01, 0x02, 0x03}) != Fletcher32([]byte{0x01, 0x02, 0x03, 0x00}) {
		t.Error("odd-length input should match zero-padded input")
	}
}
