package filter

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const defaultLZ4BlockSize = 1 << 30

// LZ4 implements the registered LZ4 filter. The stored form is a 12-byte
// big-endian header (original size, block size) followed by blocks, each
// prefixed with its compressed size. A block whose compressed size equals
// its original size is stored raw.
type LZ4 struct {
	blockSize int
}

func newLZ4(cd []uint32, _ int) (Filter, error) {
	bs := defaultLZ4BlockSize
	if len(cd) > 0 && cd[0] > 0 {
		bs = int(cd[0])
	}
	return &LZ4{blockSize: bs}, nil
}

func (f *LZ4) ID() uint16 {
	return IDLZ4
}

func (f *LZ4) Encode(input []byte) ([]byte, error) {
	bs := f.blockSize
	if bs > len(input) {
		bs = len(input)
	}
	out := make([]byte, 12, 12+lz4.CompressBlockBound(len(input)))
	binary.BigEndian.PutUint64(out, uint64(len(input)))
	binary.BigEndian.PutUint32(out[8:], uint32(bs))

	scratch := make([]byte, lz4.CompressBlockBound(bs))
	for off := 0; off < len(input); off += bs {
		end := min(off+bs, len(input))
		block := input[off:end]
		n, err := lz4.CompressBlock(block, scratch, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(block) {
			out = binary.BigEndian.AppendUint32(out, uint32(len(block)))
			out = append(out, block...)
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(n))
		out = append(out, scratch[:n]...)
	}
	return out, nil
}

func (f *LZ4) Decode(input []byte) ([]byte, error) {
	if len(input) < 12 {
		return nil, fmt.Errorf("lz4: header truncated")
	}
	total := binary.BigEndian.Uint64(input)
	bs := int(binary.BigEndian.Uint32(input[8:]))
	out := make([]byte, total)
	src := input[12:]
	for off := 0; off < int(total); off += bs {
		if len(src) < 4 {
			return nil, fmt.Errorf("lz4: block header truncated at %d", off)
		}
		n := int(binary.BigEndian.Uint32(src))
		src = src[4:]
		if len(src) < n {
			return nil, fmt.Errorf("lz4: block truncated at %d", off)
		}
		end := min(off+bs, int(total))
		dst := out[off:end]
		if n == len(dst) {
			copy(dst, src[:n])
		} else if _, err := lz4.UncompressBlock(src[:n], dst); err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		src = src[n:]
	}
	return out, nil
}
