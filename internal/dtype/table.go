package dtype

import (
	"fmt"
	"reflect"
)

// Column is one named field of a compound array. Data is a slice with one
// element per row. Type is optional on input; when set it pins the stored
// type (fixed string width, enum members).
type Column struct {
	Name string
	Type *Datatype
	Data any
}

// Table is the columnar form of a compound array.
type Table struct {
	Columns []Column
}

// NewTable creates a table, checking that every column has the same length.
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{Columns: cols}
	if _, err := t.rows(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	n, _ := t.rows()
	return n
}

// Names returns column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Float64s returns a numeric column widened to float64.
func (t *Table) Float64s(name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	v := reflect.ValueOf(c.Data)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("column %q: %w: %T", name, ErrUnsupportedType, c.Data)
	}
	out := make([]float64, v.Len())
	for i := range out {
		e := v.Index(i)
		switch {
		case e.CanInt():
			out[i] = float64(e.Int())
		case e.CanUint():
			out[i] = float64(e.Uint())
		case e.CanFloat():
			out[i] = e.Float()
		default:
			return nil, fmt.Errorf("column %q is not numeric: %w", name, ErrUnsupportedType)
		}
	}
	return out, nil
}

// Int64s returns an integer column widened to int64.
func (t *Table) Int64s(name string) ([]int64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	v := reflect.ValueOf(c.Data)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("column %q: %w: %T", name, ErrUnsupportedType, c.Data)
	}
	out := make([]int64, v.Len())
	for i := range out {
		e := v.Index(i)
		switch {
		case e.CanInt():
			out[i] = e.Int()
		case e.CanUint():
			out[i] = int64(e.Uint())
		default:
			return nil, fmt.Errorf("column %q is not integer: %w", name, ErrUnsupportedType)
		}
	}
	return out, nil
}

func (t *Table) rows() (int, error) {
	n := -1
	for _, c := range t.Columns {
		v := reflect.ValueOf(c.Data)
		if v.Kind() != reflect.Slice {
			return 0, fmt.Errorf("column %q: %w: %T", c.Name, ErrUnsupportedType, c.Data)
		}
		if n >= 0 && v.Len() != n {
			return 0, fmt.Errorf("column %q has %d rows, want %d: %w", c.Name, v.Len(), n, ErrShape)
		}
		n = v.Len()
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

func (t *Table) encode() (*Datatype, []byte, error) {
	n, err := t.rows()
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(t.Columns))
	types := make([]*Datatype, len(t.Columns))
	cols := make([][]byte, len(t.Columns))
	for i, c := range t.Columns {
		ct, data, err := encodeColumn(c)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		names[i], types[i], cols[i] = c.Name, ct, data
	}
	dt, err := Compound(names, types)
	if err != nil {
		return nil, nil, err
	}
	out := make([]byte, n*dt.Size)
	for r := 0; r < n; r++ {
		row := out[r*dt.Size:]
		for i, m := range dt.Members {
			sz := m.Type.Size
			copy(row[m.Offset:m.Offset+sz], cols[i][r*sz:(r+1)*sz])
		}
	}
	return dt, out, nil
}

func encodeColumn(c Column) (*Datatype, []byte, error) {
	inferred, _, data, err := Marshal(c.Data)
	if err != nil {
		return nil, nil, err
	}
	if inferred.IsVarLen() {
		return nil, nil, ErrVarLenMember
	}
	if c.Type == nil || c.Type.Equal(inferred) {
		return inferred, data, nil
	}
	switch {
	case c.Type.Class == ClassString && inferred.Class == ClassString && c.Type.Size >= inferred.Size:
		vals := c.Data.([][]byte)
		return c.Type, encodeFixed(vals, c.Type.Size), nil
	case c.Type.Class == ClassEnum && c.Type.Base.Equal(inferred):
		return c.Type, data, nil
	}
	return nil, nil, fmt.Errorf("%w: %s data for %s column", ErrUnsupportedType, inferred, c.Type)
}

func decodeTable(dt *Datatype, n int, data []byte) (*Table, error) {
	t := &Table{Columns: make([]Column, len(dt.Members))}
	for i, m := range dt.Members {
		sz := m.Type.Size
		col := make([]byte, n*sz)
		for r := 0; r < n; r++ {
			copy(col[r*sz:(r+1)*sz], data[r*dt.Size+m.Offset:])
		}
		vals, err := Unmarshal(m.Type, shape1(n), col)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m.Name, err)
		}
		t.Columns[i] = Column{Name: m.Name, Type: m.Type, Data: vals}
	}
	return t, nil
}
