package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var le = binary.LittleEndian

// NumElements returns the element count for a shape. A nil shape is a scalar.
func NumElements(shape []uint64) int {
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

// Marshal infers the datatype and shape of v and encodes it.
//
// Supported values are Go scalars (bool, sized and unsized ints and uints,
// float32, float64, string), []byte as a fixed-width string, slices of
// those, [][]byte as a fixed-width string array, and *Table for compound
// arrays.
func Marshal(v any) (*Datatype, []uint64, []byte, error) {
	switch x := v.(type) {
	case bool:
		return Bool(), nil, []byte{boolByte(x)}, nil
	case int8:
		return Int8(), nil, []byte{byte(x)}, nil
	case int16:
		return Int16(), nil, le.AppendUint16(nil, uint16(x)), nil
	case int32:
		return Int32(), nil, le.AppendUint32(nil, uint32(x)), nil
	case int64:
		return Int64(), nil, le.AppendUint64(nil, uint64(x)), nil
	case int:
		return Int64(), nil, le.AppendUint64(nil, uint64(x)), nil
	case uint8:
		return Uint8(), nil, []byte{x}, nil
	case uint16:
		return Uint16(), nil, le.AppendUint16(nil, x), nil
	case uint32:
		return Uint32(), nil, le.AppendUint32(nil, x), nil
	case uint64:
		return Uint64(), nil, le.AppendUint64(nil, x), nil
	case uint:
		return Uint64(), nil, le.AppendUint64(nil, uint64(x)), nil
	case float32:
		return Float32(), nil, mustAppend(x), nil
	case float64:
		return Float64(), nil, mustAppend(x), nil
	case string:
		return VarString(), nil, encodeVarStrings([]string{x}), nil
	case []byte:
		t := FixedString(len(x))
		return t, nil, encodeFixed([][]byte{x}, t.Size), nil
	case []bool:
		out := make([]byte, len(x))
		for i, b := range x {
			out[i] = boolByte(b)
		}
		return Bool(), shape1(len(x)), out, nil
	case []int8:
		return Int8(), shape1(len(x)), mustAppend(x), nil
	case []int16:
		return Int16(), shape1(len(x)), mustAppend(x), nil
	case []int32:
		return Int32(), shape1(len(x)), mustAppend(x), nil
	case []int64:
		return Int64(), shape1(len(x)), mustAppend(x), nil
	case []int:
		wide := make([]int64, len(x))
		for i, n := range x {
			wide[i] = int64(n)
		}
		return Int64(), shape1(len(x)), mustAppend(wide), nil
	case []uint16:
		return Uint16(), shape1(len(x)), mustAppend(x), nil
	case []uint32:
		return Uint32(), shape1(len(x)), mustAppend(x), nil
	case []uint64:
		return Uint64(), shape1(len(x)), mustAppend(x), nil
	case []float32:
		return Float32(), shape1(len(x)), mustAppend(x), nil
	case []float64:
		return Float64(), shape1(len(x)), mustAppend(x), nil
	case []string:
		return VarString(), shape1(len(x)), encodeVarStrings(x), nil
	case [][]byte:
		t := FixedString(maxLen(x))
		return t, shape1(len(x)), encodeFixed(x, t.Size), nil
	case *Table:
		t, data, err := x.encode()
		if err != nil {
			return nil, nil, nil, err
		}
		return t, shape1(x.Len()), data, nil
	case Table:
		return Marshal(&x)
	}
	return nil, nil, nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// Unmarshal decodes stored bytes into Go values. Scalars come back as
// their exact Go type, arrays as slices, fixed-width strings as []byte
// with trailing NULs removed, compound arrays as *Table.
func Unmarshal(t *Datatype, shape []uint64, data []byte) (any, error) {
	n := NumElements(shape)
	scalar := len(shape) == 0

	if t.IsVarLen() {
		strs, err := decodeVarStrings(data, n)
		if err != nil {
			return nil, err
		}
		if scalar {
			return strs[0], nil
		}
		return strs, nil
	}
	if len(data) != n*t.Size {
		return nil, fmt.Errorf("%w: %d bytes for %d elements of %s", ErrShape, len(data), n, t)
	}

	switch t.Class {
	case ClassString:
		vals := decodeFixed(data, n, t.Size)
		if scalar {
			return vals[0], nil
		}
		return vals, nil
	case ClassCompound:
		return decodeTable(t, n, data)
	case ClassEnum:
		if t.IsBool() {
			vals := make([]bool, n)
			for i := range vals {
				vals[i] = data[i] != 0
			}
			if scalar {
				return vals[0], nil
			}
			return vals, nil
		}
		return decodeNumeric(t.Base, n, scalar, data)
	case ClassInteger, ClassFloat:
		return decodeNumeric(t, n, scalar, data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func decodeNumeric(t *Datatype, n int, scalar bool, data []byte) (any, error) {
	switch {
	case t.Class == ClassFloat && t.Size == 4:
		return decodeAs[float32](data, n, scalar)
	case t.Class == ClassFloat && t.Size == 8:
		return decodeAs[float64](data, n, scalar)
	case t.Class == ClassInteger && t.Signed:
		switch t.Size {
		case 1:
			return decodeAs[int8](data, n, scalar)
		case 2:
			return decodeAs[int16](data, n, scalar)
		case 4:
			return decodeAs[int32](data, n, scalar)
		case 8:
			return decodeAs[int64](data, n, scalar)
		}
	case t.Class == ClassInteger:
		switch t.Size {
		case 1:
			return decodeAs[uint8](data, n, scalar)
		case 2:
			return decodeAs[uint16](data, n, scalar)
		case 4:
			return decodeAs[uint32](data, n, scalar)
		case 8:
			return decodeAs[uint64](data, n, scalar)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func decodeAs[T any](data []byte, n int, scalar bool) (any, error) {
	out := make([]T, n)
	if n > 0 {
		if _, err := binary.Decode(data, le, out); err != nil {
			return nil, err
		}
	}
	if scalar {
		return out[0], nil
	}
	return out, nil
}

func mustAppend(v any) []byte {
	out, err := binary.Append(nil, le, v)
	if err != nil {
		// Only reachable for types that are not fixed size.
		panic(err)
	}
	return out
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func shape1(n int) []uint64 {
	return []uint64{uint64(n)}
}

func maxLen(vals [][]byte) int {
	n := 0
	for _, v := range vals {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

func encodeFixed(vals [][]byte, width int) []byte {
	out := make([]byte, len(vals)*width)
	for i, v := range vals {
		copy(out[i*width:(i+1)*width], v)
	}
	return out
}

func decodeFixed(data []byte, n, width int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		elem := data[i*width : (i+1)*width]
		out[i] = bytes.Clone(bytes.TrimRight(elem, "\x00"))
	}
	return out
}

func encodeVarStrings(vals []string) []byte {
	size := 0
	for _, s := range vals {
		size += 4 + len(s)
	}
	out := make([]byte, 0, size)
	for _, s := range vals {
		out = le.AppendUint32(out, uint32(len(s)))
		out = append(out, s...)
	}
	return out
}

func decodeVarStrings(data []byte, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: string %d length prefix truncated", ErrShape, i)
		}
		l := int(le.Uint32(data))
		data = data[4:]
		if len(data) < l {
			return nil, fmt.Errorf("%w: string %d truncated", ErrShape, i)
		}
		out[i] = string(data[:l])
		data = data[l:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after strings", ErrShape, len(data))
	}
	return out, nil
}
