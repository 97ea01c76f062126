package store

import (
	"fmt"

	"github.com/robert-malhotra/go-fast5/internal/alloc"
)

// Copy deep-copies src, with its attributes and members, to name below g.
// src may live in another file. Stored chunks are copied without being
// decoded, so filters need not be available. Hard links inside src are
// kept as hard links in the copy.
func (g *Group) Copy(src Object, name string) (Object, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	s := src.base()
	if err := s.file.checkOpen(); err != nil {
		return nil, err
	}
	parent, leaf, err := g.parent(name, true)
	if err != nil {
		return nil, err
	}
	if _, ok := parent.obj.lookup(leaf); ok {
		return nil, fmt.Errorf("%s: %w", JoinPath(parent.path, leaf), ErrExists)
	}
	c := copier{src: s.file, dst: g.file, memo: make(map[uint64]*object)}
	obj, err := c.copy(s.obj)
	if err != nil {
		return nil, err
	}
	parent.addLink(leaf, obj.id)
	return parent.Object(leaf)
}

type copier struct {
	src, dst *File
	memo     map[uint64]*object
}

func (c *copier) copy(o *object) (*object, error) {
	if done, ok := c.memo[o.id]; ok {
		return done, nil
	}
	out := c.dst.newObject(o.kind)
	c.memo[o.id] = out
	for _, a := range o.attrs {
		out.attrs = append(out.attrs, a.clone())
	}

	switch o.kind {
	case kindGroup:
		for _, l := range o.links {
			child, err := c.copy(c.src.objects[l.id])
			if err != nil {
				return nil, err
			}
			out.links = append(out.links, link{name: l.name, id: child.id})
		}
	case kindDataset:
		out.dtype = o.dtype
		out.shape = append([]uint64(nil), o.shape...)
		out.chunkRows = o.chunkRows
		out.filters = append(out.filters, o.filters...)
		for _, ch := range o.chunks {
			raw := make([]byte, ch.size)
			if _, err := c.src.file.ReadAt(raw, int64(ch.addr)); err != nil {
				return nil, fmt.Errorf("copying chunk: %w", err)
			}
			addr := c.dst.alloc.Alloc(ch.size, alloc.KindChunk)
			if _, err := c.dst.file.WriteAt(raw, int64(addr)); err != nil {
				return nil, fmt.Errorf("copying chunk: %w", err)
			}
			out.chunks = append(out.chunks, chunk{addr: addr, size: ch.size, mask: ch.mask, rows: ch.rows})
		}
	}
	return out, nil
}
