// Package fast5 reads and writes nanopore fast5 containers.
//
// Three on-disk generations are supported: legacy single-read files
// (versions 0.6 up to 1.1, where the read id may only be implied by the
// file name and raw samples live in a "Data" dataset), current single-read
// files, and multi-read files holding many reads as sibling read_<id>
// groups. Code that works on reads goes through the Read interface and
// never needs to know which container backs it.
//
// Basic usage:
//
//	f, err := fast5.OpenAny("reads.fast5", fast5.ModeRead)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	reads, _ := f.Reads()
//	for _, r := range reads {
//	    signal, err := r.ScaledRawData()
//	    ...
//	}
package fast5

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-fast5/internal/store"
)

// CurrentVersion is written to the file_version attribute of new files.
const CurrentVersion = "2.0"

var (
	currentVersion = Version{Major: 2, Minor: 0}
	legacyCutoff   = Version{Major: 1, Minor: 1}
	minimumVersion = Version{Major: 0, Minor: 6}
)

// Well-known group names.
const (
	globalKeyGroup = "UniqueGlobalKey"
	analysesGroup  = "Analyses"
	rawReadsGroup  = "Raw/Reads"
	readPrefix     = "read_"
)

// HardlinkGroups are the per-read metadata groups shared between reads of
// the same run in a multi-read file.
var HardlinkGroups = []string{"context_tags", "tracking_id"}

// OptionalReadGroups are dropped when a read is copied with sanitizing on.
var OptionalReadGroups = map[string]bool{analysesGroup: true}

// Version is a major.minor file format version.
type Version struct {
	Major int
	Minor int
}

// ParseVersion reads a file_version attribute value. Old files store a
// float such as 0.6, newer ones a string such as "2.0".
func ParseVersion(v any) (Version, error) {
	var s string
	switch x := Clean(v).(type) {
	case string:
		s = x
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s = fmt.Sprint(x)
	}
	major, minor, _ := strings.Cut(strings.TrimSpace(s), ".")
	var ver Version
	var err error
	if ver.Major, err = strconv.Atoi(major); err != nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	if minor != "" {
		minor, _, _ = strings.Cut(minor, ".")
		if ver.Minor, err = strconv.Atoi(minor); err != nil {
			return Version{}, fmt.Errorf("invalid version %q", s)
		}
	}
	return ver, nil
}

// Less reports whether v is an earlier version than o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Mode selects how a file is opened.
type Mode int

const (
	ModeRead            Mode = iota // r: read only, file must exist
	ModeReadWrite                   // r+: read/write, file must exist
	ModeCreate                      // w: create, truncate if exists
	ModeCreateExclusive             // w- or x: create, fail if exists
	ModeAppend                      // a: read/write if exists, create otherwise
)

const modeHelp = `supported file modes:
    r        Readonly, file must exist (default)
    r+       Read/write, file must exist
    w        Create file, truncate if exists
    w- or x  Create file, fail if exists
    a        Read/write if exists, create otherwise`

// ParseMode converts an h5py style mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "r", "":
		return ModeRead, nil
	case "r+":
		return ModeReadWrite, nil
	case "w":
		return ModeCreate, nil
	case "w-", "x":
		return ModeCreateExclusive, nil
	case "a":
		return ModeAppend, nil
	}
	return 0, fmt.Errorf("%w: %q; %s", ErrUnsupportedMode, s, modeHelp)
}

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeReadWrite:
		return "r+"
	case ModeCreate:
		return "w"
	case ModeCreateExclusive:
		return "w-"
	case ModeAppend:
		return "a"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) storeMode() (store.Mode, error) {
	switch m {
	case ModeRead:
		return store.ReadOnly, nil
	case ModeReadWrite:
		return store.ReadWrite, nil
	case ModeCreate:
		return store.Create, nil
	case ModeCreateExclusive:
		return store.CreateExclusive, nil
	case ModeAppend:
		return store.Append, nil
	}
	return 0, fmt.Errorf("%w: %s; %s", ErrUnsupportedMode, m, modeHelp)
}

func (m Mode) creates() bool {
	return m == ModeCreate || m == ModeCreateExclusive
}
