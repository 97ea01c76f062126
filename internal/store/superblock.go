package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Signature identifies a container file.
var Signature = [8]byte{0x89, 'F', '5', 'C', '\r', '\n', 0x1a, '\n'}

const (
	formatVersion  = 1
	superblockSize = 56
	// baseAddr is the first allocatable address; the superblock is
	// padded to it.
	baseAddr = 64
)

// superblock is the fixed header at offset 0.
type superblock struct {
	Version   uint8
	RootID    uint64
	NextID    uint64
	TableAddr uint64
	TableSize uint64
	EOF       uint64
}

func readSuperblock(r io.ReaderAt) (*superblock, error) {
	buf := make([]byte, superblockSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("%w: reading superblock: %v", ErrFormat, err)
	}
	if !bytes.Equal(buf[:8], Signature[:]) {
		return nil, fmt.Errorf("%w: bad signature", ErrFormat)
	}
	br := binary.NewReader(bytes.NewReader(buf), binary.DefaultConfig())
	stored, _ := br.At(superblockSize - 4).ReadUint32()
	if !binary.VerifyLookup3(buf[:superblockSize-4], stored) {
		return nil, fmt.Errorf("%w: superblock checksum mismatch", ErrFormat)
	}

	br = br.At(8)
	sb := &superblock{}
	sb.Version, _ = br.ReadUint8()
	br.Skip(3)
	sb.RootID, _ = br.ReadUint64()
	sb.NextID, _ = br.ReadUint64()
	sb.TableAddr, _ = br.ReadUint64()
	sb.TableSize, _ = br.ReadUint64()
	sb.EOF, _ = br.ReadUint64()
	if sb.Version != formatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrUnsupported, sb.Version)
	}
	return sb, nil
}

func (sb *superblock) encode() []byte {
	var buf binary.Buffer
	w := binary.NewWriter(&buf, binary.DefaultConfig())
	w.WriteBytes(Signature[:])
	w.WriteUint8(sb.Version)
	w.WriteZeros(3)
	w.WriteUint64(sb.RootID)
	w.WriteUint64(sb.NextID)
	w.WriteUint64(sb.TableAddr)
	w.WriteUint64(sb.TableSize)
	w.WriteUint64(sb.EOF)
	w.WriteUint32(binary.Lookup3Checksum(buf.Bytes()))
	return buf.Bytes()
}

// tableEntry locates one object record.
type tableEntry struct {
	ID   uint64
	Addr uint64
	Size uint64
}

func encodeTable(entries []tableEntry) []byte {
	var buf binary.Buffer
	w := binary.NewWriter(&buf, binary.DefaultConfig())
	w.WriteUint64(uint64(len(entries)))
	for _, e := range entries {
		w.WriteUint64(e.ID)
		w.WriteUint64(e.Addr)
		w.WriteUint64(e.Size)
	}
	w.WriteUint32(binary.Lookup3Checksum(buf.Bytes()))
	return buf.Bytes()
}

func decodeTable(data []byte) ([]tableEntry, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: object table truncated", ErrFormat)
	}
	body := data[:len(data)-4]
	r := binary.NewReader(bytes.NewReader(data), binary.DefaultConfig())
	stored, _ := r.At(int64(len(body))).ReadUint32()
	if !binary.VerifyLookup3(body, stored) {
		return nil, fmt.Errorf("%w: object table checksum mismatch", ErrFormat)
	}
	n, _ := r.ReadUint64()
	if uint64(len(body)) != 8+n*24 {
		return nil, fmt.Errorf("%w: object table has %d bytes for %d entries", ErrFormat, len(body), n)
	}
	entries := make([]tableEntry, n)
	for i := range entries {
		entries[i].ID, _ = r.ReadUint64()
		entries[i].Addr, _ = r.ReadUint64()
		entries[i].Size, _ = r.ReadUint64()
	}
	return entries, nil
}
