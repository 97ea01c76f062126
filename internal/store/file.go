package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/robert-malhotra/go-fast5/internal/alloc"
)

const rootID = 1

// File represents an open container file.
type File struct {
	path    string
	file    *os.File
	mode    Mode
	objects map[uint64]*object
	nextID  uint64
	alloc   *alloc.Allocator
	table   alloc.Block
	closed  bool
	changed bool
}

// Stats summarizes a file's storage.
type Stats struct {
	Objects    int
	Datasets   int
	Chunks     int
	EOF        uint64
	Allocation alloc.Stats
}

// Open opens or creates a container file.
func Open(path string, mode Mode) (*File, error) {
	switch mode {
	case ReadOnly:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		return load(path, f, mode)
	case ReadWrite:
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		return load(path, f, mode)
	case Create:
		return create(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode)
	case CreateExclusive:
		return create(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, mode)
	case Append:
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if errors.Is(err, fs.ErrNotExist) {
			return create(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, mode)
		}
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		return load(path, f, mode)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, mode)
}

func create(path string, flags int, mode Mode) (*File, error) {
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	sf := &File{
		path:    path,
		file:    f,
		mode:    mode,
		objects: map[uint64]*object{rootID: {id: rootID, kind: kindGroup, dirty: true}},
		nextID:  rootID + 1,
		alloc:   alloc.New(baseAddr),
		changed: true,
	}
	if err := sf.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	return sf, nil
}

func load(path string, f *os.File, mode Mode) (*File, error) {
	sb, err := readSuperblock(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sf := &File{
		path:    path,
		file:    f,
		mode:    mode,
		objects: make(map[uint64]*object),
		nextID:  sb.NextID,
		alloc:   alloc.New(baseAddr),
		table:   alloc.Block{Addr: sb.TableAddr, Size: sb.TableSize, Kind: alloc.KindTable},
	}
	sf.alloc.SetEOF(sb.EOF)

	raw := make([]byte, sb.TableSize)
	if _, err := f.ReadAt(raw, int64(sb.TableAddr)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w: reading object table: %v", path, ErrFormat, err)
	}
	entries, err := decodeTable(raw)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, e := range entries {
		rec := make([]byte, e.Size)
		if _, err := f.ReadAt(rec, int64(e.Addr)); err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w: reading object %d: %v", path, ErrFormat, e.ID, err)
		}
		obj, err := decodeObject(e.ID, rec)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		obj.addr, obj.size = e.Addr, e.Size
		sf.objects[e.ID] = obj
	}
	if root, ok := sf.objects[sb.RootID]; !ok || root.kind != kindGroup || sb.RootID != rootID {
		f.Close()
		return nil, fmt.Errorf("%s: %w: missing root group", path, ErrFormat)
	}
	return sf, nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode {
	return f.mode
}

// Writable reports whether the file accepts modifications.
func (f *File) Writable() bool {
	return f.mode.Writable()
}

// Closed reports whether Close has been called.
func (f *File) Closed() bool {
	return f.closed
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return &Group{node{file: f, obj: f.objects[rootID], path: "/"}}
}

// Group opens a group by path.
func (f *File) Group(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.Root().Group(path)
}

// Dataset opens a dataset by path.
func (f *File) Dataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.Root().Dataset(path)
}

// Attr reads an attribute by "/object@name" path.
func (f *File) Attr(attrPath string) (*Attribute, error) {
	if f.closed {
		return nil, ErrClosed
	}
	objPath, name, err := ParseAttrPath(attrPath)
	if err != nil {
		return nil, err
	}
	obj, err := f.Root().Object(objPath)
	if err != nil {
		return nil, err
	}
	a, err := obj.base().Attr(name)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (f *File) checkOpen() error {
	if f.closed {
		return fmt.Errorf("%s: %w", f.path, ErrClosed)
	}
	return nil
}

func (f *File) checkWritable() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.Writable() {
		return fmt.Errorf("%s: %w", f.path, ErrReadOnly)
	}
	return nil
}

func (f *File) newObject(k kind) *object {
	obj := &object{id: f.nextID, kind: k, dirty: true}
	f.nextID++
	f.objects[obj.id] = obj
	f.changed = true
	return obj
}

func (f *File) touch(obj *object) {
	obj.dirty = true
	f.changed = true
}

// reachable marks every object linked from the root group.
func (f *File) reachable() map[uint64]bool {
	seen := map[uint64]bool{rootID: true}
	stack := []uint64{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		obj := f.objects[id]
		for _, l := range obj.links {
			if !seen[l.id] {
				seen[l.id] = true
				stack = append(stack, l.id)
			}
		}
	}
	return seen
}

// Flush persists modified objects, the object table and the superblock.
func (f *File) Flush() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.Writable() || !f.changed {
		return nil
	}

	live := f.reachable()
	for id, obj := range f.objects {
		if live[id] {
			continue
		}
		f.alloc.Free(obj.addr, obj.size)
		for _, c := range obj.chunks {
			f.alloc.Free(c.addr, c.size)
		}
		delete(f.objects, id)
	}

	ids := make([]uint64, 0, len(f.objects))
	for id := range f.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	entries := make([]tableEntry, 0, len(ids))
	for _, id := range ids {
		obj := f.objects[id]
		if obj.dirty {
			rec, err := obj.encode()
			if err != nil {
				return fmt.Errorf("encoding object %d: %w", id, err)
			}
			f.alloc.Free(obj.addr, obj.size)
			addr := f.alloc.Alloc(uint64(len(rec)), alloc.KindRecord)
			if _, err := f.file.WriteAt(rec, int64(addr)); err != nil {
				return fmt.Errorf("writing object %d: %w", id, err)
			}
			obj.addr, obj.size, obj.dirty = addr, uint64(len(rec)), false
		}
		entries = append(entries, tableEntry{ID: id, Addr: obj.addr, Size: obj.size})
	}

	table := encodeTable(entries)
	f.alloc.Free(f.table.Addr, f.table.Size)
	addr := f.alloc.Alloc(uint64(len(table)), alloc.KindTable)
	if _, err := f.file.WriteAt(table, int64(addr)); err != nil {
		return fmt.Errorf("writing object table: %w", err)
	}
	f.table = alloc.Block{Addr: addr, Size: uint64(len(table)), Kind: alloc.KindTable}

	sb := &superblock{
		Version:   formatVersion,
		RootID:    rootID,
		NextID:    f.nextID,
		TableAddr: f.table.Addr,
		TableSize: f.table.Size,
		EOF:       f.alloc.EOF(),
	}
	if _, err := f.file.WriteAt(sb.encode(), 0); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	f.changed = false
	return nil
}

// Close flushes a writable file and releases the handle. Closing twice is
// a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	err := f.Flush()
	f.closed = true
	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Stats returns storage statistics.
func (f *File) Stats() Stats {
	s := Stats{Objects: len(f.objects), EOF: f.alloc.EOF(), Allocation: f.alloc.Stats()}
	for _, obj := range f.objects {
		if obj.kind == kindDataset {
			s.Datasets++
			s.Chunks += len(obj.chunks)
		}
	}
	return s
}
