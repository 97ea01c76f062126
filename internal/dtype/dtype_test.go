package dtype

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

func TestMarshalScalars(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
		dtype string
	}{
		{"int16", int16(-7), int16(-7), "int16"},
		{"int", 12, int64(12), "int64"},
		{"uint32", uint32(4000), uint32(4000), "uint32"},
		{"float64", 819.2, 819.2, "float64"},
		{"bool", true, true, "bool"},
		{"vlen string", "unique_snowflake", "unique_snowflake", "vlen-str"},
		{"fixed string", []byte("abc"), []byte("abc"), "S3"},
		{"empty fixed string", []byte{}, []byte{}, "S1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, shape, data, err := Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if shape != nil {
				t.Errorf("scalar shape = %v", shape)
			}
			if dt.String() != tt.dtype {
				t.Errorf("dtype = %s, want %s", dt, tt.dtype)
			}
			got, err := Unmarshal(dt, shape, data)
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMarshalSignal(t *testing.T) {
	signal := make([]int16, 1000)
	for i := range signal {
		signal[i] = int16(i - 500)
	}
	dt, shape, data, err := Marshal(signal)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) != 2000 || shape[0] != 1000 {
		t.Fatalf("unexpected encoding: %d bytes, shape %v", len(data), shape)
	}
	got, err := Unmarshal(dt, shape, data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(got, signal) {
		t.Error("signal did not survive round trip")
	}
}

func TestFixedStringPadding(t *testing.T) {
	dt, shape, data, err := Marshal([][]byte{[]byte("a"), []byte("abcd"), nil})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if dt.Size != 4 {
		t.Fatalf("width = %d, want 4", dt.Size)
	}
	if !bytes.Equal(data[:4], []byte{'a', 0, 0, 0}) {
		t.Errorf("padding = %v", data[:4])
	}
	got, err := Unmarshal(dt, shape, data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := [][]byte{[]byte("a"), []byte("abcd"), {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTableRoundTrip(t *testing.T) {
	tbl, err := NewTable(
		Column{Name: "mean", Data: []float64{1.5, 2.5}},
		Column{Name: "start", Data: []int64{10, 20}},
		Column{Name: "model_state", Data: [][]byte{[]byte("AC"), []byte("GTA")}},
		Column{Name: "move", Data: []bool{false, true}},
	)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	dt, shape, data, err := Marshal(tbl)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if dt.Class != ClassCompound || len(dt.Members) != 4 {
		t.Fatalf("unexpected type %s", dt)
	}
	if dt.Size != 8+8+3+1 {
		t.Errorf("row size = %d", dt.Size)
	}

	got, err := Unmarshal(dt, shape, data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	out := got.(*Table)
	if out.Len() != 2 {
		t.Fatalf("Len() = %d", out.Len())
	}
	if !reflect.DeepEqual(out.Names(), []string{"mean", "start", "model_state", "move"}) {
		t.Errorf("Names() = %v", out.Names())
	}
	col, _ := out.Column("model_state")
	if !reflect.DeepEqual(col.Data, [][]byte{[]byte("AC"), []byte("GTA")}) {
		t.Errorf("model_state = %q", col.Data)
	}
	starts, err := out.Float64s("start")
	if err != nil || !reflect.DeepEqual(starts, []float64{10, 20}) {
		t.Errorf("Float64s(start) = %v, %v", starts, err)
	}
}

func TestTableRejectsVarLenColumn(t *testing.T) {
	tbl := &Table{Columns: []Column{{Name: "name", Data: []string{"x"}}}}
	if _, _, _, err := Marshal(tbl); err == nil {
		t.Fatal("expected error for variable-length column")
	}
}

func TestTableRowMismatch(t *testing.T) {
	_, err := NewTable(
		Column{Name: "a", Data: []int32{1, 2}},
		Column{Name: "b", Data: []int32{1}},
	)
	if err == nil {
		t.Fatal("expected row count mismatch")
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	compound, err := Compound(
		[]string{"mean", "state"},
		[]*Datatype{Float32(), FixedString(5)},
	)
	if err != nil {
		t.Fatalf("Compound failed: %v", err)
	}
	types := []*Datatype{
		Int16(), Uint64(), Float64(), VarString(), FixedString(8), Bool(),
		Enum(Uint8(), []string{"a", "b", "c"}, []int64{0, 1, 2}),
		compound,
	}
	for _, dt := range types {
		var buf binary.Buffer
		if err := dt.Encode(binary.NewWriter(&buf, binary.DefaultConfig())); err != nil {
			t.Fatalf("Encode %s failed: %v", dt, err)
		}
		got, err := Decode(binary.NewReader(bytes.NewReader(buf.Bytes()), binary.DefaultConfig()))
		if err != nil {
			t.Fatalf("Decode %s failed: %v", dt, err)
		}
		if !got.Equal(dt) {
			t.Errorf("descriptor changed: %s -> %s", dt, got)
		}
	}
}

func TestUnmarshalShapeMismatch(t *testing.T) {
	if _, err := Unmarshal(Int32(), []uint64{3}, make([]byte, 8)); err == nil {
		t.Fatal("expected shape error")
	}
}

func TestEnumKeepsBaseValues(t *testing.T) {
	en := Enum(Uint8(), []string{"x", "y"}, []int64{0, 5})
	got, err := Unmarshal(en, nil, []byte{5})
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got != uint8(5) {
		t.Errorf("got %#v", got)
	}
	if name, ok := en.EnumName(5); !ok || name != "y" {
		t.Errorf("EnumName(5) = %q, %v", name, ok)
	}
}
