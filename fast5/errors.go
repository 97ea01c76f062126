package fast5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

// Sentinel errors. Errors returned by this package wrap one of these and
// can be tested with errors.Is.
var (
	ErrFormat          = errors.New("invalid fast5 file")
	ErrMissingCodec    = errors.New("compression codec missing")
	ErrRawDataExists   = errors.New("raw data already exists")
	ErrNoRawData       = errors.New("no raw data")
	ErrUnsupportedMode = errors.New("unsupported file mode")
	ErrBulkUnsupported = errors.New("bulk fast5 files are not supported")
	ErrAlreadyCurrent  = errors.New("file is already at the current version")
	ErrHardlinkSource  = errors.New("read holds metadata shared with other reads")
	ErrZeroWidth       = errors.New("zero-width string field")

	ErrNotFound = store.ErrNotFound
	ErrExists   = store.ErrExists
	ErrReadOnly = store.ErrReadOnly
	ErrClosed   = store.ErrClosed
)

// FormatError reports a file whose layout is invalid or unrecognized.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// MissingCodecError reports raw data that could not be read or written
// because its compression filter is not registered.
type MissingCodecError struct {
	ID         uint16
	PluginPath string
	Err        error
}

func (e *MissingCodecError) Error() string {
	return fmt.Sprintf("Failed to read compressed raw data. %s compression filter (id=%d) may be missing from expected path: '%s'",
		codecLabel(e.ID), e.ID, e.PluginPath)
}

func (e *MissingCodecError) Is(target error) bool {
	return target == ErrMissingCodec
}

func (e *MissingCodecError) Unwrap() error {
	return e.Err
}

func codecLabel(id uint16) string {
	if id == filter.IDVBZ {
		return "VBZ"
	}
	return filter.Name(id)
}

// wrapCodecError turns a missing-filter failure into a MissingCodecError.
// Every other error is returned unchanged.
func wrapCodecError(err error) error {
	var ue *filter.UnavailableError
	if err == nil || !errors.As(err, &ue) {
		return err
	}
	return &MissingCodecError{ID: ue.ID, PluginPath: filter.PluginPath(), Err: err}
}
