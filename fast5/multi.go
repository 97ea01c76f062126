package fast5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-fast5/internal/store"
)

// MultiFile holds many reads as sibling read_<id> groups. Reads of the same
// run share their tracking_id and context_tags groups through hard links.
type MultiFile struct {
	c *container

	// runIndex maps a run id to the read whose metadata groups later reads
	// of that run link to. Built lazily, reset when a read is deleted.
	runIndex map[string]string
}

// MultiRead is one read of a MultiFile.
type MultiRead struct {
	*readCore
	file   *MultiFile
	readID string
}

var _ Read = (*MultiRead)(nil)

// OpenMulti opens or creates a multi-read file. A writable file without a
// file_version attribute is stamped with the current version.
func OpenMulti(path string, mode Mode) (*MultiFile, error) {
	smode, err := mode.storeMode()
	if err != nil {
		return nil, err
	}
	f, err := store.Open(path, smode)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "failed to open multi-read file", Err: err}
	}
	m := &MultiFile{c: &container{path: path, mode: mode, file: f}}
	root := f.Root()
	if mode != ModeRead && !root.HasAttr("file_version") {
		if err := root.SetAttr("file_version", CurrentVersion); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not write file_version in mode %q to %s: %w", mode, path, err)
		}
		if err := root.SetAttr("file_type", string(FileTypeMulti)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return m, nil
}

// Path returns the file path.
func (m *MultiFile) Path() string {
	return m.c.path
}

// Mode returns the mode the file is open in.
func (m *MultiFile) Mode() Mode {
	return m.c.mode
}

func (m *MultiFile) root() *store.Group {
	return m.c.file.Root()
}

func (m *MultiFile) newRead(id string) *MultiRead {
	r := &MultiRead{file: m, readID: id}
	r.readCore = &readCore{
		c:        m.c,
		prefix:   "/" + readPrefix + id,
		id:       func() string { return r.readID },
		rawGroup: func() string { return "Raw" },
	}
	return r
}

// ReadIDs returns the ids of all reads in insertion order.
func (m *MultiFile) ReadIDs() ([]string, error) {
	if err := m.c.assertOpen(); err != nil {
		return nil, err
	}
	names, err := m.root().Members()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, name := range names {
		if id, ok := strings.CutPrefix(name, readPrefix); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Reads returns all reads in insertion order.
func (m *MultiFile) Reads() ([]Read, error) {
	ids, err := m.ReadIDs()
	if err != nil {
		return nil, err
	}
	reads := make([]Read, len(ids))
	for i, id := range ids {
		reads[i] = m.newRead(id)
	}
	return reads, nil
}

// Read returns the read with the given id.
func (m *MultiFile) Read(id string) (Read, error) {
	return m.MultiRead(id)
}

// MultiRead is Read with the concrete return type.
func (m *MultiFile) MultiRead(id string) (*MultiRead, error) {
	if err := m.c.assertOpen(); err != nil {
		return nil, err
	}
	if !m.root().IsGroup(readPrefix + id) {
		return nil, fmt.Errorf("%w: read %q not in %s", ErrNotFound, readPrefix+id, m.c.path)
	}
	return m.newRead(id), nil
}

// runIDs returns the run index, building it from the file on first use.
// Reads without a run id are skipped.
func (m *MultiFile) runIDs() map[string]string {
	if m.runIndex != nil {
		return m.runIndex
	}
	m.runIndex = make(map[string]string)
	ids, err := m.ReadIDs()
	if err != nil {
		return m.runIndex
	}
	for _, id := range ids {
		run, err := m.newRead(id).RunID()
		if err != nil {
			continue
		}
		if _, seen := m.runIndex[run]; !seen {
			m.runIndex[run] = id
		}
	}
	return m.runIndex
}

// linkShared links group sub of the run's source read into dst. It
// reports false when the run has no source or the source lacks sub.
func (m *MultiFile) linkShared(dst *store.Group, runID, sub string) (bool, error) {
	srcID, ok := m.runIDs()[runID]
	if !ok {
		return false, nil
	}
	p := readPrefix + srcID + "/" + sub
	if !m.root().Has(p) {
		return false, nil
	}
	obj, err := m.root().Object(p)
	if err != nil {
		return false, err
	}
	if err := dst.Link(sub, obj); err != nil {
		return false, fmt.Errorf("linking %s into read %s: %w", p, dst.Path(), err)
	}
	return true, nil
}

// CreateEmptyRead adds a read group tagged with runID. If another read of
// the same run already holds the shared metadata groups they are linked;
// otherwise the new read becomes the run's source for later reads.
func (m *MultiFile) CreateEmptyRead(readID, runID string) (*MultiRead, error) {
	if err := m.c.assertWritable(); err != nil {
		return nil, err
	}
	name := readPrefix + readID
	if m.root().Has(name) {
		return nil, fmt.Errorf("%w: read %q in %s", ErrExists, readID, m.c.path)
	}
	g, err := m.root().CreateGroup(name)
	if err != nil {
		return nil, fmt.Errorf("could not create group %q in %s: %w", name, m.c.path, err)
	}
	linkedAll := true
	for _, sub := range HardlinkGroups {
		linked, err := m.linkShared(g, runID, sub)
		if err != nil {
			return nil, err
		}
		linkedAll = linkedAll && linked
	}
	if !linkedAll {
		m.runIDs()[runID] = readID
	}
	if err := g.SetAttr("run_id", runID); err != nil {
		return nil, err
	}
	return m.newRead(readID), nil
}

// CopyOption configures AddExistingRead.
type CopyOption func(*copyOptions)

type copyOptions struct {
	target   Compression
	convert  bool
	sanitize bool
}

// WithTargetCompression re-encodes raw data whose filters do not match c.
// Matching raw data is copied without decoding.
func WithTargetCompression(c Compression) CopyOption {
	return func(o *copyOptions) {
		o.target, o.convert = c, true
	}
}

// WithSanitize drops optional groups such as Analyses.
func WithSanitize() CopyOption {
	return func(o *copyOptions) {
		o.sanitize = true
	}
}

func (o copyOptions) reencode(src Read) (bool, error) {
	if !o.convert || !src.HasRawData() {
		return false, nil
	}
	filters, err := src.RawCompression()
	if err != nil {
		return false, err
	}
	return !o.target.Matches(filters), nil
}

func isHardlinkGroup(name string) bool {
	for _, g := range HardlinkGroups {
		if g == name {
			return true
		}
	}
	return false
}

// AddExistingRead copies src, which may belong to a single- or multi-read
// file, into a new read group. Metadata groups are linked to an existing
// read of the same run where possible.
func (m *MultiFile) AddExistingRead(src Read, opts ...CopyOption) error {
	if err := m.c.assertWritable(); err != nil {
		return err
	}
	if err := src.core().c.assertOpen(); err != nil {
		return err
	}
	o := copyOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	var err error
	switch s := src.(type) {
	case *MultiRead:
		err = m.addFromMulti(s, o)
	case *SingleFile:
		err = m.addFromSingle(s, o)
	default:
		err = fmt.Errorf("%w: cannot add read from %T in %s", ErrFormat, src, src.Filename())
	}
	if err != nil {
		return fmt.Errorf("adding read %s from %s: %w", src.ReadID(), src.Filename(), err)
	}
	return nil
}

func (m *MultiFile) startCopy(src Read) (dst, srcRoot *store.Group, err error) {
	sc := src.core()
	srcRoot, err = sc.root().Group(sc.prefix)
	if err != nil {
		return nil, nil, err
	}
	dst, err = m.root().CreateGroup(readPrefix + src.ReadID())
	if err != nil {
		return nil, nil, err
	}
	if err := dst.CopyAttrs(srcRoot); err != nil {
		return nil, nil, err
	}
	return dst, srcRoot, nil
}

func (m *MultiFile) addFromMulti(src *MultiRead, o copyOptions) error {
	dst, srcRoot, err := m.startCopy(src)
	if err != nil {
		return err
	}
	reencode, err := o.reencode(src)
	if err != nil {
		return err
	}
	runID, runErr := src.RunID()
	members, err := srcRoot.Members()
	if err != nil {
		return err
	}
	for _, sub := range members {
		switch {
		case o.sanitize && OptionalReadGroups[sub]:
			continue
		case sub == src.rawGroup() && reencode:
			if err := m.reencodeRaw(src, o.target); err != nil {
				return err
			}
			continue
		case isHardlinkGroup(sub) && runErr == nil:
			linked, err := m.linkShared(dst, runID, sub)
			if err != nil {
				return err
			}
			if linked {
				continue
			}
			m.runIDs()[runID] = src.ReadID()
		}
		obj, err := srcRoot.Object(sub)
		if err != nil {
			return err
		}
		if _, err := dst.Copy(obj, sub); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiFile) addFromSingle(src *SingleFile, o copyOptions) error {
	dst, srcRoot, err := m.startCopy(src)
	if err != nil {
		return err
	}
	reencode, err := o.reencode(src)
	if err != nil {
		return err
	}
	members, err := srcRoot.Members()
	if err != nil {
		return err
	}
	for _, sub := range members {
		switch {
		case o.sanitize && OptionalReadGroups[sub]:
		case sub == globalKeyGroup:
			if err := m.copyGlobalKey(dst, src, srcRoot); err != nil {
				return err
			}
		case sub == "Raw":
			if reencode {
				if err := m.reencodeRaw(src, o.target); err != nil {
					return err
				}
				continue
			}
			raw, err := srcRoot.Group(src.rawGroup())
			if err != nil {
				return err
			}
			if _, err := dst.Copy(raw, "Raw"); err != nil {
				return err
			}
		case !o.sanitize:
			obj, err := srcRoot.Object(sub)
			if err != nil {
				return err
			}
			if _, err := dst.Copy(obj, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyGlobalKey moves the UniqueGlobalKey children of a single-read file
// directly below the read group, linking shared groups where the run
// already has a source.
func (m *MultiFile) copyGlobalKey(dst *store.Group, src *SingleFile, srcRoot *store.Group) error {
	gk, err := srcRoot.Group(globalKeyGroup)
	if err != nil {
		return err
	}
	runID, runErr := src.RunID()
	names, err := gk.Members()
	if err != nil {
		return err
	}
	for _, name := range names {
		if isHardlinkGroup(name) && runErr == nil {
			linked, err := m.linkShared(dst, runID, name)
			if err != nil {
				return err
			}
			if linked {
				continue
			}
		}
		obj, err := gk.Object(name)
		if err != nil {
			return err
		}
		if _, err := dst.Copy(obj, name); err != nil {
			return err
		}
	}
	if runErr == nil {
		if _, seen := m.runIDs()[runID]; !seen {
			m.runIDs()[runID] = src.ReadID()
		}
	}
	return nil
}

// reencodeRaw writes the raw signal of src to the read of the same id in m
// with compression c.
func (m *MultiFile) reencodeRaw(src Read, c Compression) error {
	return reencodeInto(src, m.newRead(src.ReadID()).readCore, c)
}

// reencodeInto decodes the raw signal of src and writes it to out with
// compression c, keeping the raw group attributes and their stored types.
func reencodeInto(src Read, out *readCore, c Compression) error {
	samples, err := src.RawData()
	if err != nil {
		return err
	}
	sc := src.core()
	rawGroup, err := sc.group(sc.rawGroup())
	if err != nil {
		return err
	}
	return out.addRawData(samples, c, func(g *store.Group) error {
		return g.CopyAttrs(rawGroup)
	})
}

// DeleteRead removes a read. A read that is the run's metadata source
// while other reads still link to its groups cannot be deleted.
func (m *MultiFile) DeleteRead(id string) error {
	if err := m.c.assertWritable(); err != nil {
		return err
	}
	name := readPrefix + id
	g, err := m.root().Group(name)
	if err != nil {
		return fmt.Errorf("%w: read %q not in %s", ErrNotFound, name, m.c.path)
	}
	if run, err := m.newRead(id).RunID(); err == nil && m.runIDs()[run] == id {
		shared, err := m.sharesMetadata(id, g)
		if err != nil {
			return err
		}
		if shared {
			return fmt.Errorf("%w: read %s in %s", ErrHardlinkSource, id, m.c.path)
		}
	}
	if err := m.root().Unlink(name); err != nil {
		return err
	}
	m.runIndex = nil
	return nil
}

// sharesMetadata reports whether another read links to one of the
// hardlink groups of read id.
func (m *MultiFile) sharesMetadata(id string, g *store.Group) (bool, error) {
	owned := map[string]uint64{}
	for _, sub := range HardlinkGroups {
		if obj, err := g.Object(sub); err == nil {
			owned[sub] = obj.ID()
		}
	}
	ids, err := m.ReadIDs()
	if err != nil {
		return false, err
	}
	for _, other := range ids {
		if other == id {
			continue
		}
		for sub, oid := range owned {
			obj, err := m.root().Object(readPrefix + other + "/" + sub)
			if err != nil {
				continue
			}
			if obj.ID() == oid {
				return true, nil
			}
		}
	}
	return false, nil
}

// Flush writes pending changes to disk.
func (m *MultiFile) Flush() error {
	if err := m.c.assertOpen(); err != nil {
		return err
	}
	return m.c.file.Flush()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (m *MultiFile) Close() error {
	return m.c.close()
}
