package convert

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MappingFile is the name of the audit log in every output directory.
const MappingFile = "filename_mapping.txt"

// MappingLog appends tab-separated "from\tto" lines to the
// filename_mapping.txt of one output directory. It is safe for concurrent
// use.
type MappingLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

// NewMappingLog truncates dir/filename_mapping.txt and opens it for
// appending. dir is created if needed.
func NewMappingLog(dir string) (*MappingLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, MappingFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &MappingLog{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// Path returns the location of the log.
func (l *MappingLog) Path() string {
	return l.path
}

// Add records that from was written to to.
func (l *MappingLog) Add(from, to string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("mapping log %s is closed", l.path)
	}
	_, err := fmt.Fprintf(l.w, "%s\t%s\n", from, to)
	return err
}

// Close flushes and closes the log. Closing twice is a no-op.
func (l *MappingLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := errors.Join(l.w.Flush(), l.f.Close())
	l.f = nil
	return err
}
