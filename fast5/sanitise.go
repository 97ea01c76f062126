package fast5

import (
	"fmt"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
)

// EncodeForStorage converts text into the fixed-width byte strings used
// on disk. Strings become []byte, string slices become [][]byte, and the
// string columns of a table are converted one by one so each keeps its
// own width. Other values are returned unchanged.
func EncodeForStorage(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []string:
		return toBytes(x), nil
	case *dtype.Table:
		return encodeTable(x)
	case dtype.Table:
		return encodeTable(&x)
	}
	return v, nil
}

func encodeTable(t *dtype.Table) (*dtype.Table, error) {
	out := &dtype.Table{Columns: make([]dtype.Column, len(t.Columns))}
	for i, c := range t.Columns {
		strs, ok := c.Data.([]string)
		if !ok {
			out.Columns[i] = c
			continue
		}
		width := 1
		for _, s := range strs {
			width = max(width, len(s))
		}
		if c.Type != nil && c.Type.Class == dtype.ClassString && !c.Type.VarLen {
			width = c.Type.Size
		}
		if width == 0 {
			return nil, fmt.Errorf("%w: column %q cannot be encoded", ErrZeroWidth, c.Name)
		}
		for _, s := range strs {
			if len(s) > width {
				return nil, fmt.Errorf("column %q: value %q longer than %d bytes", c.Name, s, width)
			}
		}
		out.Columns[i] = dtype.Column{Name: c.Name, Type: dtype.FixedString(width), Data: toBytes(strs)}
	}
	return out, nil
}

func toBytes(strs []string) [][]byte {
	out := make([][]byte, len(strs))
	for i, s := range strs {
		out[i] = []byte(s)
	}
	return out
}

// DecodeForPresentation is the inverse of EncodeForStorage: byte strings
// come back as text, including the byte-string columns of a table.
func DecodeForPresentation(v any) any {
	switch x := v.(type) {
	case *dtype.Table:
		out := &dtype.Table{Columns: make([]dtype.Column, len(x.Columns))}
		for i, c := range x.Columns {
			if b, ok := c.Data.([][]byte); ok {
				c = dtype.Column{Name: c.Name, Data: toStrings(b)}
			}
			out.Columns[i] = c
		}
		return out
	}
	return Clean(v)
}

func toStrings(vals [][]byte) []string {
	out := make([]string, len(vals))
	for i, b := range vals {
		out[i] = string(b)
	}
	return out
}

// Clean normalizes an attribute value read from a file to a plain Go
// value: byte strings become strings and byte-string arrays become
// string slices.
func Clean(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case [][]byte:
		return toStrings(x)
	}
	return v
}
