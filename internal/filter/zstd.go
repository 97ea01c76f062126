package filter

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdMu       sync.Mutex
	zstdEncoders = map[int]*zstd.Encoder{}
	zstdDecoder  *zstd.Decoder
)

// Zstd implements the registered Zstandard filter.
// Client data: [0] = compression level (default 3)
type Zstd struct {
	level int
}

func newZstd(cd []uint32, _ int) (Filter, error) {
	level := 3
	if len(cd) > 0 && cd[0] > 0 {
		level = int(cd[0])
	}
	return &Zstd{level: level}, nil
}

func (f *Zstd) ID() uint16 {
	return IDZstd
}

// Encoders and the decoder are shared; EncodeAll and DecodeAll are safe
// for concurrent use.
func (f *Zstd) encoder() (*zstd.Encoder, error) {
	zstdMu.Lock()
	defer zstdMu.Unlock()
	if enc, ok := zstdEncoders[f.level]; ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(f.level)))
	if err != nil {
		return nil, err
	}
	zstdEncoders[f.level] = enc
	return enc, nil
}

func decoder() (*zstd.Decoder, error) {
	zstdMu.Lock()
	defer zstdMu.Unlock()
	if zstdDecoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		zstdDecoder = dec
	}
	return zstdDecoder, nil
}

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	enc, err := f.encoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(input, nil), nil
}

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	dec, err := decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
