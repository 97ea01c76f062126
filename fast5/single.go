package fast5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-fast5/internal/store"
)

// SingleFile is a file holding exactly one read below Raw/Reads, with its
// metadata in UniqueGlobalKey. The file is itself the Read.
type SingleFile struct {
	*readCore
	status *Info
}

var _ Read = (*SingleFile)(nil)

// OpenSingle opens or creates a single-read file. Creating modes lay out
// the empty groups of a current-version file and continue in read-write
// mode. The file must scan as valid.
func OpenSingle(path string, mode Mode) (*SingleFile, error) {
	smode, err := mode.storeMode()
	if err != nil {
		return nil, err
	}
	if mode.creates() {
		if err := initSingle(path, smode); err != nil {
			return nil, &FormatError{Path: path, Reason: "failed to initialise single-read file", Err: err}
		}
		mode, smode = ModeReadWrite, store.ReadWrite
	}
	status, err := Scan(path)
	if err != nil {
		return nil, err
	}
	if !status.Valid {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("not a valid single-read file (version %s)", status.Version)}
	}
	f, err := store.Open(path, smode)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "failed to open single-read file", Err: err}
	}
	return newSingle(path, mode, f, status), nil
}

// OpenEmpty creates a single-read file holding only file_version, for
// callers that lay out the metadata themselves.
func OpenEmpty(path string, mode Mode) (*SingleFile, error) {
	smode, err := mode.storeMode()
	if err != nil {
		return nil, err
	}
	f, err := store.Open(path, smode)
	if err != nil {
		return nil, err
	}
	if err := f.Root().SetAttr("file_version", CurrentVersion); err != nil {
		f.Close()
		return nil, err
	}
	return newSingle(path, mode, f, newInfo()), nil
}

func initSingle(path string, mode store.Mode) error {
	f, err := store.Open(path, mode)
	if err != nil {
		return err
	}
	root := f.Root()
	if err := root.SetAttr("file_version", CurrentVersion); err != nil {
		f.Close()
		return err
	}
	for _, g := range []string{
		analysesGroup,
		rawReadsGroup,
		globalKeyGroup + "/channel_id",
		globalKeyGroup + "/context_tags",
		globalKeyGroup + "/tracking_id",
	} {
		if _, err := root.CreateGroup(g); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func newSingle(path string, mode Mode, f *store.File, status *Info) *SingleFile {
	s := &SingleFile{status: status}
	s.readCore = &readCore{
		c:         &container{path: path, mode: mode, file: f},
		prefix:    "/",
		globalKey: globalKeyGroup + "/",
		id:        s.readID,
		rawGroup:  s.rawGroupName,
	}
	s.onRaw = s.markRaw
	return s
}

func (s *SingleFile) readID() string {
	if len(s.status.Reads) == 0 {
		return ""
	}
	return s.status.Reads[0].ReadID
}

func (s *SingleFile) onlyReadNumber() int64 {
	if len(s.status.Reads) == 0 {
		return 0
	}
	return s.status.Reads[0].ReadNumber
}

func (s *SingleFile) rawGroupName() string {
	return readGroupName(s.onlyReadNumber())
}

func readGroupName(number int64) string {
	return fmt.Sprintf("%s/Read_%d", rawReadsGroup, number)
}

func (s *SingleFile) markRaw() {
	if i, ok := s.status.IndexOfNumber(s.onlyReadNumber()); ok {
		s.status.Reads[i].HasRawData = true
	}
}

// Path returns the file path.
func (s *SingleFile) Path() string {
	return s.c.path
}

// Mode returns the mode the file is open in.
func (s *SingleFile) Mode() Mode {
	return s.c.mode
}

// Status returns the catalog built when the file was opened, including
// reads added since.
func (s *SingleFile) Status() *Info {
	return s.status
}

// ReadIDs returns the id of the file's read.
func (s *SingleFile) ReadIDs() ([]string, error) {
	if err := s.c.assertOpen(); err != nil {
		return nil, err
	}
	return []string{s.ReadID()}, nil
}

// Read returns the file itself when id matches its read.
func (s *SingleFile) Read(id string) (Read, error) {
	if err := s.c.assertOpen(); err != nil {
		return nil, err
	}
	if id != s.ReadID() {
		return nil, fmt.Errorf("%w: read id %q does not match read id %q in %s", ErrNotFound, id, s.ReadID(), s.c.path)
	}
	return s, nil
}

// Reads returns the file's only read.
func (s *SingleFile) Reads() ([]Read, error) {
	if err := s.c.assertOpen(); err != nil {
		return nil, err
	}
	return []Read{s}, nil
}

// AddRead creates the read group with its identifying attributes and
// adds the read to the catalog. Most tools assume one read per file.
func (s *SingleFile) AddRead(number int64, id string, start, duration, mux int64, medianBefore float64) error {
	if err := s.c.assertWritable(); err != nil {
		return err
	}
	attrs := readGroupAttrs(number, id, start, duration, mux, medianBefore)
	if err := s.addReadGroup(readGroupName(number), attrs); err != nil {
		return err
	}
	s.status.add(ReadInfo{
		ReadNumber:   number,
		ReadID:       id,
		StartTime:    start,
		Duration:     duration,
		StartMux:     mux,
		MedianBefore: medianBefore,
	})
	return nil
}

type readAttr struct {
	name  string
	value any
}

func readGroupAttrs(number int64, id string, start, duration, mux int64, medianBefore float64) []readAttr {
	return []readAttr{
		{"read_number", int32(number)},
		{"read_id", id},
		{"start_time", uint64(start)},
		{"duration", uint32(duration)},
		{"start_mux", uint8(mux)},
		{"median_before", medianBefore},
	}
}

// addReadGroup creates the read group with attrs. A group whose
// attributes cannot be written is removed again.
func (s *SingleFile) addReadGroup(name string, attrs []readAttr) error {
	g, err := s.addGroup(name, nil)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		if err := g.SetAttr(a.name, a.value); err != nil {
			return errors.Join(fmt.Errorf("read group %s: %w", name, err), s.removeGroup(name))
		}
	}
	return nil
}

// readFor returns a view of the file whose raw data calls address the
// group of read number rather than the first read.
func (s *SingleFile) readFor(number int64) *readCore {
	rc := *s.readCore
	rc.rawGroup = func() string { return readGroupName(number) }
	rc.onRaw = func() {
		if i, ok := s.status.IndexOfNumber(number); ok {
			s.status.Reads[i].HasRawData = true
		}
	}
	return &rc
}

// Flush writes pending changes to disk.
func (s *SingleFile) Flush() error {
	if err := s.c.assertOpen(); err != nil {
		return err
	}
	return s.c.file.Flush()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (s *SingleFile) Close() error {
	return s.c.close()
}
