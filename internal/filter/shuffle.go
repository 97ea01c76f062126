package filter

// Shuffle implements the byte shuffle filter. Byte j of every element is
// grouped together, which makes slowly varying integers compress better.
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter.
// Client data: [0] = element size in bytes
func NewShuffle(clientData []uint32) *Shuffle {
	elemSize := 1
	if len(clientData) > 0 && clientData[0] > 0 {
		elemSize = int(clientData[0])
	}
	return &Shuffle{elemSize: elemSize}
}

func newShuffle(cd []uint32, elemSize int) (Filter, error) {
	s := NewShuffle(cd)
	if len(cd) == 0 && elemSize > 0 {
		s.elemSize = elemSize
	}
	return s, nil
}

func (f *Shuffle) ID() uint16 {
	return IDShuffle
}

// Encode groups byte j of all elements at offset j*numElems.
func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	n := len(input) / f.elemSize
	if f.elemSize <= 1 || n == 0 {
		return input, nil
	}
	output := make([]byte, len(input))
	for i := 0; i < n; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[j*n+i] = input[i*f.elemSize+j]
		}
	}
	// Trailing bytes that do not form a whole element are kept in place.
	copy(output[n*f.elemSize:], input[n*f.elemSize:])
	return output, nil
}

// Decode reverses the shuffle transformation.
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / f.elemSize
	if f.elemSize <= 1 || n == 0 {
		return input, nil
	}
	output := make([]byte, len(input))
	for i := 0; i < n; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[i*f.elemSize+j] = input[j*n+i]
		}
	}
	copy(output[n*f.elemSize:], input[n*f.elemSize:])
	return output, nil
}
