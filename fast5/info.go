package fast5

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-fast5/internal/store"
)

// Layout is the file generation, decided once when a file is scanned.
type Layout int

const (
	// LayoutPreRaw files predate version 1.1 and have no Raw group: reads
	// are only known from their event detection records.
	LayoutPreRaw Layout = iota
	// LayoutLegacyRaw files predate version 1.1 and carry a Raw group.
	// tracking_id is optional, read ids may be missing and raw samples
	// may live in "Data".
	LayoutLegacyRaw
	// LayoutCurrent files are version 1.1 or later.
	LayoutCurrent
)

func (l Layout) String() string {
	switch l {
	case LayoutPreRaw:
		return "pre-raw"
	case LayoutLegacyRaw:
		return "legacy-raw"
	}
	return "current"
}

func layoutOf(v Version, hasRaw bool) Layout {
	switch {
	case !v.Less(legacyCutoff):
		return LayoutCurrent
	case hasRaw:
		return LayoutLegacyRaw
	}
	return LayoutPreRaw
}

// ReadInfo is the catalog entry for one read.
type ReadInfo struct {
	ReadNumber     int64
	ReadID         string
	StartTime      int64
	Duration       int64
	StartMux       int64
	MedianBefore   float64
	HasRawData     bool
	HasEventData   bool
	EventDataCount int
}

// Info is a snapshot of a single-read file's structure. It is not updated
// by later writes to the file, except through the file that owns it.
type Info struct {
	Valid   bool
	Version Version
	Layout  Layout
	Channel string
	Reads   []ReadInfo

	byNumber map[int64]int
	byID     map[string]int
}

func newInfo() *Info {
	return &Info{
		Valid:    true,
		Version:  currentVersion,
		Layout:   LayoutCurrent,
		byNumber: make(map[int64]int),
		byID:     make(map[string]int),
	}
}

// IndexOfNumber returns the position of the read with the given number.
func (s *Info) IndexOfNumber(n int64) (int, bool) {
	i, ok := s.byNumber[n]
	return i, ok
}

// IndexOfID returns the position of the read with the given id.
func (s *Info) IndexOfID(id string) (int, bool) {
	i, ok := s.byID[id]
	return i, ok
}

func (s *Info) add(ri ReadInfo) {
	s.Reads = append(s.Reads, ri)
	n := len(s.Reads) - 1
	s.byNumber[ri.ReadNumber] = n
	s.byID[ri.ReadID] = n
}

func (s *Info) legacy() bool {
	return s.Layout != LayoutCurrent
}

// Scan opens path read-only and catalogs its reads without loading any
// signal or event data. Structural problems that make the file unusable
// are returned as a *FormatError; softer deviations clear Info.Valid.
func Scan(path string) (*Info, error) {
	f, err := store.Open(path, store.ReadOnly)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()
	return scanFile(path, f)
}

func scanFile(path string, f *store.File) (*Info, error) {
	root := f.Root()
	info := newInfo()

	if root.HasAttr("file_version") {
		raw, err := root.AttrValue("file_version")
		if err != nil {
			return nil, &FormatError{Path: path, Reason: "reading file_version", Err: err}
		}
		ver, err := ParseVersion(raw)
		if err != nil {
			return nil, &FormatError{Path: path, Reason: "reading file_version", Err: err}
		}
		info.Version = ver
		if ver.Less(minimumVersion) {
			info.Valid = false
		}
	} else {
		info.Valid = false
		info.Version = Version{}
	}
	info.Layout = layoutOf(info.Version, root.Has("Raw"))

	gk, err := root.Group(globalKeyGroup)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "missing " + globalKeyGroup, Err: err}
	}
	if !gk.Has("tracking_id") && !info.legacy() {
		info.Valid = false
	}
	channel, err := gk.Group("channel_id")
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "missing channel_id", Err: err}
	}
	if channel.HasAttr("channel_number") {
		v, _ := channel.AttrValue("channel_number")
		info.Channel = asString(v)
	} else if info.legacy() {
		info.Valid = false
	}

	switch {
	case info.Layout == LayoutPreRaw:
	case root.Has("Raw"):
		if err := scanRaw(path, root, info); err != nil {
			return nil, err
		}
	default:
		info.Valid = false
	}

	if err := scanEvents(path, root, info); err != nil {
		return nil, err
	}

	if info.legacy() && len(info.Reads) == 0 {
		info.Valid = false
	}
	return info, nil
}

// readAttrsInfo builds a ReadInfo from the attributes of a read group.
// ok is false when the read has no id in a current-layout file.
func readAttrsInfo(path string, g *store.Group, info *Info) (ReadInfo, bool, error) {
	var ri ReadInfo
	num, err := g.AttrValue("read_number")
	if err != nil {
		return ri, false, &FormatError{Path: path, Reason: "read group " + g.Path(), Err: err}
	}
	if ri.ReadNumber, err = asInt(num); err != nil {
		return ri, false, &FormatError{Path: path, Reason: "read_number of " + g.Path(), Err: err}
	}
	if g.HasAttr("read_id") {
		v, _ := g.AttrValue("read_id")
		ri.ReadID = asString(v)
	} else if info.legacy() {
		ri.ReadID = filepath.Base(path)
	} else {
		return ri, false, nil
	}
	for _, field := range []struct {
		name string
		dst  *int64
	}{{"start_time", &ri.StartTime}, {"duration", &ri.Duration}} {
		v, err := g.AttrValue(field.name)
		if err != nil {
			return ri, false, &FormatError{Path: path, Reason: "read group " + g.Path(), Err: err}
		}
		if *field.dst, err = asInt(v); err != nil {
			return ri, false, &FormatError{Path: path, Reason: field.name + " of " + g.Path(), Err: err}
		}
	}
	mux, err := attrOr(g, "start_mux", int64(0))
	if err != nil {
		return ri, false, err
	}
	ri.StartMux, _ = asInt(mux)
	mb, err := attrOr(g, "median_before", -1.0)
	if err != nil {
		return ri, false, err
	}
	ri.MedianBefore, _ = asFloat(mb)
	return ri, true, nil
}

func scanRaw(path string, root *store.Group, info *Info) error {
	reads, err := root.Group(rawReadsGroup)
	if err != nil {
		return &FormatError{Path: path, Reason: "missing " + rawReadsGroup, Err: err}
	}
	names, err := reads.Members()
	if err != nil {
		return err
	}
	for _, name := range names {
		g, err := reads.Group(name)
		if err != nil {
			return &FormatError{Path: path, Reason: "read entry " + name, Err: err}
		}
		ri, ok, err := readAttrsInfo(path, g, info)
		if err != nil {
			return err
		}
		if !ok {
			// A current-layout read without an id invalidates the file
			// but is still catalogued.
			info.Valid = false
		}
		switch {
		case g.IsDataset("Signal"):
			ri.HasRawData = true
		case info.Layout == LayoutLegacyRaw && g.IsDataset(legacyRawDataset):
			ri.HasRawData = true
		case info.legacy():
			info.Valid = false
		}
		info.add(ri)
	}
	return nil
}

func scanEvents(path string, root *store.Group, info *Info) error {
	analyses, err := root.Group(analysesGroup)
	if err != nil {
		return nil
	}
	names, err := analyses.Members()
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, ana := range names {
		if !strings.HasPrefix(ana, "EventDetection") {
			continue
		}
		reads, err := analyses.Group(ana + "/Reads")
		if err != nil {
			continue
		}
		members, err := reads.Members()
		if err != nil {
			return err
		}
		for _, name := range members {
			g, err := reads.Group(name)
			if err != nil {
				return &FormatError{Path: path, Reason: "event read entry " + name, Err: err}
			}
			ri, ok, err := readAttrsInfo(path, g, info)
			if err != nil {
				return err
			}
			if !ok {
				info.Valid = false
				continue
			}
			if ev, err := g.Dataset("Events"); err == nil {
				ri.HasEventData = true
				ri.EventDataCount = ev.Len()
			}
			if i, found := info.byNumber[ri.ReadNumber]; found {
				info.Reads[i].HasEventData = ri.HasEventData
				info.Reads[i].EventDataCount = ri.EventDataCount
				continue
			}
			if !info.legacy() {
				info.Valid = false
			}
			info.add(ri)
		}
		break
	}
	return nil
}
