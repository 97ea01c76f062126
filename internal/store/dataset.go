package store

import (
	"fmt"

	"github.com/robert-malhotra/go-fast5/internal/alloc"
	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/filter"
)

// Dataset is a typed n-dimensional array stored in row chunks.
type Dataset struct {
	node
}

// CreateDataset stores value at p. Missing intermediate groups are created.
// Filters are only allowed on array values.
func (g *Group) CreateDataset(p string, value any, opts ...DatasetOption) (*Dataset, error) {
	dt, shape, data, err := dtype.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", JoinPath(g.path, p), err)
	}
	return g.CreateDatasetRaw(p, dt, shape, data, opts...)
}

// CreateDatasetRaw stores already encoded element bytes of the given type
// and shape.
func (g *Group) CreateDatasetRaw(p string, dt *dtype.Datatype, shape []uint64, data []byte, opts ...DatasetOption) (*Dataset, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	var o datasetOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(shape) == 0 && len(o.filters) > 0 {
		return nil, fmt.Errorf("%w: filters on scalar dataset %s", ErrUnsupported, JoinPath(g.path, p))
	}
	if !dt.IsVarLen() && len(data) != dtype.NumElements(shape)*dt.Size {
		return nil, fmt.Errorf("%w: %d bytes for shape %v of %s", ErrType, len(data), shape, dt)
	}

	parent, name, err := g.parent(p, true)
	if err != nil {
		return nil, err
	}
	if _, ok := parent.obj.lookup(name); ok {
		return nil, fmt.Errorf("%s: %w", JoinPath(parent.path, name), ErrExists)
	}

	elemSize := elementSize(dt)
	infos := make([]filter.Info, len(o.filters))
	for i, info := range o.filters {
		info.ClientData = append([]uint32(nil), info.ClientData...)
		if info.ID == filter.IDShuffle && len(info.ClientData) == 0 {
			info.ClientData = []uint32{uint32(elemSize)}
		}
		infos[i] = info
	}
	pipe, err := filter.NewPipeline(infos, elemSize)
	if err != nil {
		return nil, err
	}

	rows := uint64(1)
	if len(shape) > 0 {
		rows = shape[0]
	}
	rowSize := rowBytes(dt, shape)
	chunkRows := o.chunkRows
	switch {
	case dt.IsVarLen() || rows == 0:
		chunkRows = max(rows, 1)
	case chunkRows == 0 && len(infos) > 0:
		chunkRows = max(1, defaultChunkBytes/max(rowSize, 1))
	case chunkRows == 0:
		chunkRows = rows
	}

	obj := g.file.newObject(kindDataset)
	obj.dtype = dt
	obj.shape = append([]uint64(nil), shape...)
	obj.chunkRows = chunkRows
	obj.filters = infos

	if dt.IsVarLen() {
		if err := g.file.writeChunk(obj, pipe, data, rows); err != nil {
			return nil, err
		}
	} else {
		for first := uint64(0); first < rows; first += chunkRows {
			n := min(chunkRows, rows-first)
			part := data[first*rowSize : (first+n)*rowSize]
			if err := g.file.writeChunk(obj, pipe, part, n); err != nil {
				return nil, err
			}
		}
	}

	parent.addLink(name, obj.id)
	ds := &Dataset{node{file: g.file, obj: obj, path: JoinPath(parent.path, name)}}
	for _, a := range o.attributes {
		if err := ds.SetAttr(a.name, a.value); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (f *File) writeChunk(obj *object, pipe *filter.Pipeline, data []byte, rows uint64) error {
	enc, mask, err := pipe.Encode(data)
	if err != nil {
		return err
	}
	addr := f.alloc.Alloc(uint64(len(enc)), alloc.KindChunk)
	if _, err := f.file.WriteAt(enc, int64(addr)); err != nil {
		return fmt.Errorf("writing chunk: %w", err)
	}
	obj.chunks = append(obj.chunks, chunk{addr: addr, size: uint64(len(enc)), mask: mask, rows: rows})
	return nil
}

func elementSize(dt *dtype.Datatype) int {
	if dt.IsVarLen() || dt.Size == 0 {
		return 1
	}
	return dt.Size
}

func rowBytes(dt *dtype.Datatype, shape []uint64) uint64 {
	n := uint64(elementSize(dt))
	for i := 1; i < len(shape); i++ {
		n *= shape[i]
	}
	return n
}

// Type returns the element datatype.
func (d *Dataset) Type() *dtype.Datatype {
	return d.obj.dtype
}

// Shape returns the dataset dimensions. A scalar has an empty shape.
func (d *Dataset) Shape() []uint64 {
	return append([]uint64(nil), d.obj.shape...)
}

// IsScalar reports whether the dataset holds a single value.
func (d *Dataset) IsScalar() bool {
	return len(d.obj.shape) == 0
}

// Len returns the size of the first dimension, or 0 for scalars.
func (d *Dataset) Len() int {
	if len(d.obj.shape) == 0 {
		return 0
	}
	return int(d.obj.shape[0])
}

// Filters returns the dataset's filter pipeline.
func (d *Dataset) Filters() []filter.Info {
	out := make([]filter.Info, len(d.obj.filters))
	for i, f := range d.obj.filters {
		f.ClientData = append([]uint32(nil), f.ClientData...)
		out[i] = f
	}
	return out
}

// ChunkRows returns the number of first-dimension rows per chunk.
func (d *Dataset) ChunkRows() uint64 {
	return d.obj.chunkRows
}

// NumChunks returns the number of stored chunks.
func (d *Dataset) NumChunks() int {
	return len(d.obj.chunks)
}

// StorageSize returns the stored (filtered) byte size.
func (d *Dataset) StorageSize() uint64 {
	var n uint64
	for _, c := range d.obj.chunks {
		n += c.size
	}
	return n
}

func (d *Dataset) pipeline() (*filter.Pipeline, error) {
	p, err := filter.NewPipeline(d.obj.filters, elementSize(d.obj.dtype))
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return p, nil
}

func (d *Dataset) readChunk(pipe *filter.Pipeline, c chunk) ([]byte, error) {
	raw := make([]byte, c.size)
	if _, err := d.file.file.ReadAt(raw, int64(c.addr)); err != nil {
		return nil, fmt.Errorf("dataset %s: reading chunk: %w", d.path, err)
	}
	if pipe == nil || pipe.Empty() {
		return raw, nil
	}
	out, err := pipe.Decode(raw, c.mask)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return out, nil
}

// ReadBytes returns the decoded element bytes of the whole dataset.
func (d *Dataset) ReadBytes() ([]byte, error) {
	return d.readRows(0, uint64(max(d.Len(), 1)))
}

func (d *Dataset) readRows(start, end uint64) ([]byte, error) {
	if err := d.file.checkOpen(); err != nil {
		return nil, err
	}
	var pipe *filter.Pipeline
	if len(d.obj.filters) > 0 {
		var err error
		if pipe, err = d.pipeline(); err != nil {
			return nil, err
		}
	}
	if d.obj.dtype.IsVarLen() {
		if len(d.obj.chunks) == 0 {
			return []byte{}, nil
		}
		return d.readChunk(pipe, d.obj.chunks[0])
	}
	rowSize := rowBytes(d.obj.dtype, d.obj.shape)
	var out []byte
	var first uint64
	for _, c := range d.obj.chunks {
		last := first + c.rows
		if last > start && first < end {
			data, err := d.readChunk(pipe, c)
			if err != nil {
				return nil, err
			}
			lo, hi := max(start, first)-first, min(end, last)-first
			if hi*rowSize > uint64(len(data)) {
				return nil, fmt.Errorf("%w: dataset %s chunk holds %d bytes", ErrFormat, d.path, len(data))
			}
			out = append(out, data[lo*rowSize:hi*rowSize]...)
		}
		first = last
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// ReadAll decodes the whole dataset. See dtype.Unmarshal for the returned
// Go types.
func (d *Dataset) ReadAll() (any, error) {
	data, err := d.ReadBytes()
	if err != nil {
		return nil, err
	}
	v, err := dtype.Unmarshal(d.obj.dtype, d.obj.shape, data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return v, nil
}

// ReadSlice decodes rows [start, end) of the first dimension. Negative
// indices count from the end, and both bounds are clamped to the dataset
// like a Python slice.
func (d *Dataset) ReadSlice(start, end int) (any, error) {
	if d.IsScalar() {
		return nil, fmt.Errorf("%w: slicing scalar dataset %s", ErrUnsupported, d.path)
	}
	if d.obj.dtype.IsVarLen() {
		all, err := d.ReadAll()
		if err != nil {
			return nil, err
		}
		strs := all.([]string)
		lo, hi := clampRange(start, end, len(strs))
		return strs[lo:hi], nil
	}
	lo, hi := clampRange(start, end, d.Len())
	data, err := d.readRows(uint64(lo), uint64(hi))
	if err != nil {
		return nil, err
	}
	shape := d.Shape()
	shape[0] = uint64(hi - lo)
	v, err := dtype.Unmarshal(d.obj.dtype, shape, data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return v, nil
}

func clampRange(start, end, n int) (int, int) {
	norm := func(i int) int {
		if i < 0 {
			i += n
		}
		return min(max(i, 0), n)
	}
	lo, hi := norm(start), norm(end)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// ReadInt16 reads an int16 dataset.
func (d *Dataset) ReadInt16() ([]int16, error) {
	v, err := d.ReadAll()
	if err != nil {
		return nil, err
	}
	s, ok := v.([]int16)
	if !ok {
		return nil, fmt.Errorf("%w: dataset %s is %s, not int16", ErrType, d.path, d.obj.dtype)
	}
	return s, nil
}

// Table reads a compound dataset.
func (d *Dataset) Table() (*dtype.Table, error) {
	v, err := d.ReadAll()
	if err != nil {
		return nil, err
	}
	t, ok := v.(*dtype.Table)
	if !ok {
		return nil, fmt.Errorf("%w: dataset %s is %s, not compound", ErrType, d.path, d.obj.dtype)
	}
	return t, nil
}

// RawChunk is one stored chunk in its filtered form.
type RawChunk struct {
	Rows uint64
	Mask uint32
	Data []byte
}

// StoredChunks returns the chunks without running the filter pipeline.
func (d *Dataset) StoredChunks() ([]RawChunk, error) {
	if err := d.file.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]RawChunk, len(d.obj.chunks))
	for i, c := range d.obj.chunks {
		raw, err := d.readChunk(nil, c)
		if err != nil {
			return nil, err
		}
		out[i] = RawChunk{Rows: c.rows, Mask: c.mask, Data: raw}
	}
	return out, nil
}
