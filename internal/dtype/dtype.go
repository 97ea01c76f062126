// Package dtype describes element types stored in container datasets and
// attributes, and converts between Go values and their stored bytes.
//
// All numeric data is little-endian. Strings are either fixed width (null
// padded, surfaced as []byte) or variable length (surfaced as string).
// Booleans are stored as an int8 enum with members FALSE and TRUE.
package dtype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Class is the datatype class. Values follow the HDF5 class numbering.
type Class uint8

const (
	ClassInteger  Class = 0
	ClassFloat    Class = 1
	ClassString   Class = 3
	ClassCompound Class = 6
	ClassEnum     Class = 8
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassString:
		return "string"
	case ClassCompound:
		return "compound"
	case ClassEnum:
		return "enum"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrVarLenMember    = errors.New("variable-length member in compound type")
	ErrShape           = errors.New("data does not match shape")
)

// Datatype describes one element.
type Datatype struct {
	Class  Class
	Size   int // element size in bytes, 0 for variable-length strings
	Signed bool
	VarLen bool

	Members []Member // compound only

	Base   *Datatype // enum only
	Names  []string
	Values []int64
}

// Member is one field of a compound type.
type Member struct {
	Name   string
	Offset int
	Type   *Datatype
}

func integer(size int, signed bool) *Datatype {
	return &Datatype{Class: ClassInteger, Size: size, Signed: signed}
}

// Integer and float constructors.
func Int8() *Datatype { return integer(1, true) }
func Int16() *Datatype { return integer(2, true) }
func Int32() *Datatype { return integer(4, true) }
func Int64() *Datatype { return integer(8, true) }
func Uint8() *Datatype { return integer(1, false) }
func Uint16() *Datatype { return integer(2, false) }
func Uint32() *Datatype { return integer(4, false) }
func Uint64() *Datatype { return integer(8, false) }
func Float32() *Datatype { return &Datatype{Class: ClassFloat, Size: 4} }
func Float64() *Datatype { return &Datatype{Class: ClassFloat, Size: 8} }

// FixedString returns a null-padded string type of width n.
func FixedString(n int) *Datatype {
	if n < 1 {
		n = 1
	}
	return &Datatype{Class: ClassString, Size: n}
}

// VarString returns a variable-length string type.
func VarString() *Datatype {
	return &Datatype{Class: ClassString, VarLen: true}
}

// Enum returns an enumeration over an integer base type.
func Enum(base *Datatype, names []string, values []int64) *Datatype {
	return &Datatype{Class: ClassEnum, Size: base.Size, Base: base, Names: names, Values: values}
}

// Bool returns the enum type used to store booleans.
func Bool() *Datatype {
	return Enum(Int8(), []string{"FALSE", "TRUE"}, []int64{0, 1})
}

// Compound lays members out back to back in the given order.
func Compound(names []string, types []*Datatype) (*Datatype, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("compound: %d names for %d types", len(names), len(types))
	}
	dt := &Datatype{Class: ClassCompound}
	for i, t := range types {
		if t.IsVarLen() {
			return nil, fmt.Errorf("member %q: %w", names[i], ErrVarLenMember)
		}
		dt.Members = append(dt.Members, Member{Name: names[i], Offset: dt.Size, Type: t})
		dt.Size += t.Size
	}
	return dt, nil
}

// IsVarLen reports whether elements have no fixed size.
func (t *Datatype) IsVarLen() bool {
	return t.Class == ClassString && t.VarLen
}

// IsBool reports whether t is the boolean enum.
func (t *Datatype) IsBool() bool {
	return t.Class == ClassEnum && t.Size == 1 && len(t.Names) == 2 &&
		t.Names[0] == "FALSE" && t.Names[1] == "TRUE" &&
		t.Values[0] == 0 && t.Values[1] == 1
}

// IsNumeric reports whether t is an integer or float type.
func (t *Datatype) IsNumeric() bool {
	return t.Class == ClassInteger || t.Class == ClassFloat
}

// Member returns the compound member with the given name.
func (t *Datatype) Member(name string) (Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// EnumName returns the member name for an enum value.
func (t *Datatype) EnumName(v int64) (string, bool) {
	for i, ev := range t.Values {
		if ev == v {
			return t.Names[i], true
		}
	}
	return "", false
}

// Equal reports whether two datatypes describe the same element layout.
func (t *Datatype) Equal(o *Datatype) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Class != o.Class || t.Size != o.Size || t.Signed != o.Signed || t.VarLen != o.VarLen {
		return false
	}
	if len(t.Members) != len(o.Members) || len(t.Names) != len(o.Names) {
		return false
	}
	for i, m := range t.Members {
		om := o.Members[i]
		if m.Name != om.Name || m.Offset != om.Offset || !m.Type.Equal(om.Type) {
			return false
		}
	}
	for i := range t.Names {
		if t.Names[i] != o.Names[i] || t.Values[i] != o.Values[i] {
			return false
		}
	}
	if t.Class == ClassEnum {
		return t.Base.Equal(o.Base)
	}
	return true
}

func (t *Datatype) String() string {
	switch t.Class {
	case ClassInteger:
		if t.Signed {
			return fmt.Sprintf("int%d", t.Size*8)
		}
		return fmt.Sprintf("uint%d", t.Size*8)
	case ClassFloat:
		return fmt.Sprintf("float%d", t.Size*8)
	case ClassString:
		if t.VarLen {
			return "vlen-str"
		}
		return fmt.Sprintf("S%d", t.Size)
	case ClassEnum:
		if t.IsBool() {
			return "bool"
		}
		return fmt.Sprintf("enum(%s)", t.Base)
	case ClassCompound:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.Name + ":" + m.Type.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return t.Class.String()
}

const (
	flagSigned = 1 << 0
	flagVarLen = 1 << 1
)

// Encode writes the datatype descriptor.
func (t *Datatype) Encode(w *binary.Writer) error {
	var flags uint8
	if t.Signed {
		flags |= flagSigned
	}
	if t.VarLen {
		flags |= flagVarLen
	}
	if err := w.WriteUint8(uint8(t.Class)); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(t.Size)); err != nil {
		return err
	}
	switch t.Class {
	case ClassCompound:
		if err := w.WriteUint16(uint16(len(t.Members))); err != nil {
			return err
		}
		for _, m := range t.Members {
			if err := w.WriteString(m.Name); err != nil {
				return err
			}
			if err := w.WriteUint32(uint32(m.Offset)); err != nil {
				return err
			}
			if err := m.Type.Encode(w); err != nil {
				return err
			}
		}
	case ClassEnum:
		if err := t.Base.Encode(w); err != nil {
			return err
		}
		if err := w.WriteUint16(uint16(len(t.Names))); err != nil {
			return err
		}
		for i, name := range t.Names {
			if err := w.WriteString(name); err != nil {
				return err
			}
			if err := w.WriteUint64(uint64(t.Values[i])); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode reads a datatype descriptor written by Encode.
func Decode(r *binary.Reader) (*Datatype, error) {
	class, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	t := &Datatype{
		Class:  Class(class),
		Size:   int(size),
		Signed: flags&flagSigned != 0,
		VarLen: flags&flagVarLen != 0,
	}
	switch t.Class {
	case ClassInteger, ClassFloat, ClassString:
	case ClassCompound:
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		t.Members = make([]Member, n)
		for i := range t.Members {
			if t.Members[i].Name, err = r.ReadString(); err != nil {
				return nil, err
			}
			off, err := r.ReadUint32()
			if err != nil {
				return nil, err
			}
			t.Members[i].Offset = int(off)
			if t.Members[i].Type, err = Decode(r); err != nil {
				return nil, err
			}
		}
	case ClassEnum:
		if t.Base, err = Decode(r); err != nil {
			return nil, err
		}
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		t.Names = make([]string, n)
		t.Values = make([]int64, n)
		for i := range t.Names {
			if t.Names[i], err = r.ReadString(); err != nil {
				return nil, err
			}
			v, err := r.ReadUint64()
			if err != nil {
				return nil, err
			}
			t.Values[i] = int64(v)
		}
	default:
		return nil, fmt.Errorf("%w: datatype class %d", ErrUnsupportedType, class)
	}
	return t, nil
}
