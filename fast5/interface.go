package fast5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-fast5/internal/store"
)

// FileType is the value of the root file_type attribute.
type FileType string

const (
	FileTypeMulti  FileType = "multi-read"
	FileTypeSingle FileType = "single-read"
	FileTypeBulk   FileType = "bulk"
)

// Container is a single- or multi-read file seen as a collection of reads.
type Container interface {
	Path() string
	ReadIDs() ([]string, error)
	Read(id string) (Read, error)
	Reads() ([]Read, error)
	Close() error
}

var (
	_ Container = (*SingleFile)(nil)
	_ Container = (*MultiFile)(nil)
)

// DetectType reports whether path is a multi- or single-read file. The
// file_type attribute decides when present; older files are classified by
// their top-level groups, with an empty file counting as multi-read.
// Bulk files are rejected with ErrBulkUnsupported.
func DetectType(path string) (FileType, error) {
	f, err := store.Open(path, store.ReadOnly)
	if err != nil {
		return "", &FormatError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()

	ft, err := fileTypeOf(f.Root())
	if err != nil {
		return "", &FormatError{Path: path, Reason: err.Error()}
	}
	switch ft {
	case FileTypeMulti, FileTypeSingle:
		return ft, nil
	case FileTypeBulk:
		return "", fmt.Errorf("%w: %s", ErrBulkUnsupported, path)
	}
	return "", &FormatError{Path: path, Reason: fmt.Sprintf("unknown file type %q", ft)}
}

func fileTypeOf(root *store.Group) (FileType, error) {
	if root.HasAttr("file_type") {
		v, err := root.AttrValue("file_type")
		if err != nil {
			return "", err
		}
		return FileType(asString(v)), nil
	}
	names, err := root.Members()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return FileTypeMulti, nil
	}
	for _, name := range names {
		if strings.HasPrefix(name, readPrefix) {
			return FileTypeMulti, nil
		}
	}
	for _, name := range names {
		if name == globalKeyGroup {
			return FileTypeSingle, nil
		}
	}
	return "", fmt.Errorf("file type could not be identified as single- or multi-read")
}

// OpenAny opens path as whichever container type DetectType reports.
func OpenAny(path string, mode Mode) (Container, error) {
	ft, err := DetectType(path)
	if err != nil {
		return nil, err
	}
	if ft == FileTypeMulti {
		m, err := OpenMulti(path, mode)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	s, err := OpenSingle(path, mode)
	if err != nil {
		return nil, err
	}
	return s, nil
}
