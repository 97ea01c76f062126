package store

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/filter"
)

type kind uint8

const (
	kindGroup   kind = 1
	kindDataset kind = 2
)

type link struct {
	name string
	id   uint64
}

// chunk is one stored run of first-dimension rows.
type chunk struct {
	addr uint64
	size uint64
	mask uint32
	rows uint64
}

// object is the in-memory form of a group or dataset record.
type object struct {
	id    uint64
	kind  kind
	attrs []*Attribute

	links []link // groups

	dtype     *dtype.Datatype // datasets
	shape     []uint64
	chunkRows uint64
	filters   []filter.Info
	chunks    []chunk

	addr  uint64 // location of the persisted record, 0 if never written
	size  uint64
	dirty bool
}

func (o *object) lookup(name string) (uint64, bool) {
	for _, l := range o.links {
		if l.name == name {
			return l.id, true
		}
	}
	return 0, false
}

func (o *object) attr(name string) (int, *Attribute) {
	for i, a := range o.attrs {
		if a.Name == name {
			return i, a
		}
	}
	return -1, nil
}

func writeShape(w *binary.Writer, shape []uint64) {
	w.WriteUint8(uint8(len(shape)))
	for _, d := range shape {
		w.WriteUint64(d)
	}
}

func readShape(r *binary.Reader) ([]uint64, error) {
	rank, err := r.ReadUint8()
	if err != nil || rank == 0 {
		return nil, err
	}
	shape := make([]uint64, rank)
	for i := range shape {
		if shape[i], err = r.ReadUint64(); err != nil {
			return nil, err
		}
	}
	return shape, nil
}

func (o *object) encode() ([]byte, error) {
	var buf binary.Buffer
	w := binary.NewWriter(&buf, binary.DefaultConfig())
	w.WriteUint8(uint8(o.kind))
	w.WriteUint16(uint16(len(o.attrs)))
	for _, a := range o.attrs {
		if err := w.WriteString(a.Name); err != nil {
			return nil, err
		}
		if err := a.Type.Encode(w); err != nil {
			return nil, err
		}
		writeShape(w, a.Shape)
		if err := w.WriteBlob(a.Data); err != nil {
			return nil, err
		}
	}

	switch o.kind {
	case kindGroup:
		w.WriteUint32(uint32(len(o.links)))
		for _, l := range o.links {
			if err := w.WriteString(l.name); err != nil {
				return nil, err
			}
			w.WriteUint64(l.id)
		}
	case kindDataset:
		if err := o.dtype.Encode(w); err != nil {
			return nil, err
		}
		writeShape(w, o.shape)
		w.WriteUint64(o.chunkRows)
		w.WriteUint8(uint8(len(o.filters)))
		for _, f := range o.filters {
			w.WriteUint16(f.ID)
			w.WriteUint16(f.Flags)
			w.WriteUint8(uint8(len(f.ClientData)))
			for _, cd := range f.ClientData {
				w.WriteUint32(cd)
			}
		}
		w.WriteUint32(uint32(len(o.chunks)))
		for _, c := range o.chunks {
			w.WriteUint64(c.addr)
			w.WriteUint64(c.size)
			w.WriteUint32(c.mask)
			w.WriteUint64(c.rows)
		}
	}
	w.WriteUint32(binary.Lookup3Checksum(buf.Bytes()))
	return buf.Bytes(), nil
}

func decodeObject(id uint64, data []byte) (*object, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: object %d record truncated", ErrFormat, id)
	}
	body := data[:len(data)-4]
	r := binary.NewReader(bytes.NewReader(data), binary.DefaultConfig())
	stored, _ := r.At(int64(len(body))).ReadUint32()
	if !binary.VerifyLookup3(body, stored) {
		return nil, fmt.Errorf("%w: object %d checksum mismatch", ErrFormat, id)
	}

	o := &object{id: id}
	if err := o.decodeBody(r); err != nil {
		return nil, fmt.Errorf("%w: object %d: %v", ErrFormat, id, err)
	}
	return o, nil
}

func (o *object) decodeBody(r *binary.Reader) error {
	k, err := r.ReadUint8()
	if err != nil {
		return err
	}
	o.kind = kind(k)
	nattrs, err := r.ReadUint16()
	if err != nil {
		return err
	}
	o.attrs = make([]*Attribute, nattrs)
	for i := range o.attrs {
		a := &Attribute{}
		if a.Name, err = r.ReadString(); err != nil {
			return err
		}
		if a.Type, err = dtype.Decode(r); err != nil {
			return err
		}
		if a.Shape, err = readShape(r); err != nil {
			return err
		}
		if a.Data, err = r.ReadBlob(); err != nil {
			return err
		}
		o.attrs[i] = a
	}

	switch o.kind {
	case kindGroup:
		n, err := r.ReadUint32()
		if err != nil {
			return err
		}
		o.links = make([]link, n)
		for i := range o.links {
			if o.links[i].name, err = r.ReadString(); err != nil {
				return err
			}
			if o.links[i].id, err = r.ReadUint64(); err != nil {
				return err
			}
		}
	case kindDataset:
		if o.dtype, err = dtype.Decode(r); err != nil {
			return err
		}
		if o.shape, err = readShape(r); err != nil {
			return err
		}
		if o.chunkRows, err = r.ReadUint64(); err != nil {
			return err
		}
		nf, err := r.ReadUint8()
		if err != nil {
			return err
		}
		o.filters = make([]filter.Info, nf)
		for i := range o.filters {
			f := &o.filters[i]
			if f.ID, err = r.ReadUint16(); err != nil {
				return err
			}
			if f.Flags, err = r.ReadUint16(); err != nil {
				return err
			}
			ncd, err := r.ReadUint8()
			if err != nil {
				return err
			}
			f.ClientData = make([]uint32, ncd)
			for j := range f.ClientData {
				if f.ClientData[j], err = r.ReadUint32(); err != nil {
					return err
				}
			}
		}
		nc, err := r.ReadUint32()
		if err != nil {
			return err
		}
		o.chunks = make([]chunk, nc)
		for i := range o.chunks {
			c := &o.chunks[i]
			if c.addr, err = r.ReadUint64(); err != nil {
				return err
			}
			if c.size, err = r.ReadUint64(); err != nil {
				return err
			}
			if c.mask, err = r.ReadUint32(); err != nil {
				return err
			}
			if c.rows, err = r.ReadUint64(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown object kind %d", k)
	}
	return nil
}
