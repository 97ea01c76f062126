package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/shenwei356/xopen"
)

// Default summary columns.
const (
	ReadIDColumn   = "read_id"
	BarcodeColumn  = "barcode_arrangement"
	summaryDelimit = '\t'
)

// ReadSet is a set of read ids.
type ReadSet map[string]struct{}

// NewReadSet returns a set holding ids.
func NewReadSet(ids ...string) ReadSet {
	s := make(ReadSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s ReadSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the ids in lexical order.
func (s ReadSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// openText opens a possibly compressed text file.
func openText(path string) (*xopen.Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s: empty read list", path)
	}
	return xopen.Ropen(path)
}

func newSummaryReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = summaryDelimit
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

func readHeader(path string, cr *csv.Reader) ([]string, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty read list", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return slices.Clone(header), nil
}

// ReadList parses a read id list, which may be gzip, xz, zstd or bzip2
// compressed. A file whose header has a read_id column is a summary table
// and that column is used. Otherwise the file must have one column and
// every line, the first included, is a read id.
func ReadList(path string) (ReadSet, error) {
	fh, err := openText(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	cr := newSummaryReader(fh)
	header, err := readHeader(path, cr)
	if err != nil {
		return nil, err
	}
	ids := ReadSet{}
	col := slices.Index(header, ReadIDColumn)
	if col < 0 {
		if len(header) != 1 {
			return nil, fmt.Errorf("%s: no %q column in multi-column header: %s",
				path, ReadIDColumn, strings.Join(header, ", "))
		}
		col = 0
		ids[strings.TrimSpace(header[0])] = struct{}{}
	}
	err = eachRecord(path, cr, func(rec []string) error {
		if col >= len(rec) {
			return fmt.Errorf("missing column %d", col+1)
		}
		ids[strings.TrimSpace(rec[col])] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	delete(ids, "")
	return ids, nil
}

// ParseSummary reads a sequencing summary and groups the values of its
// readIDColumn by the value of binColumn. Both columns must be in the
// header.
func ParseSummary(path, readIDColumn, binColumn string) (map[string]ReadSet, error) {
	fh, err := openText(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	cr := newSummaryReader(fh)
	header, err := readHeader(path, cr)
	if err != nil {
		return nil, err
	}
	idCol := slices.Index(header, readIDColumn)
	if idCol < 0 {
		return nil, fmt.Errorf("%s: no %q read id column in header: %s", path, readIDColumn, strings.Join(header, ", "))
	}
	binCol := slices.Index(header, binColumn)
	if binCol < 0 {
		return nil, fmt.Errorf("%s: no %q demultiplex column in header: %s", path, binColumn, strings.Join(header, ", "))
	}
	bins := map[string]ReadSet{}
	err = eachRecord(path, cr, func(rec []string) error {
		if idCol >= len(rec) || binCol >= len(rec) {
			return fmt.Errorf("expected %d columns, found %d", len(header), len(rec))
		}
		bin := rec[binCol]
		if bins[bin] == nil {
			bins[bin] = ReadSet{}
		}
		bins[bin][rec[idCol]] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bins, nil
}

func eachRecord(path string, cr *csv.Reader, fn func([]string) error) error {
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := fn(rec); err != nil {
			line, _ := cr.FieldPos(0)
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
}
