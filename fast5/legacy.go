package fast5

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

// legacyRawDataset holds the raw samples of legacy-raw files.
const legacyRawDataset = "Data"

// UpdateLegacyFile migrates an older single-read file to the current
// layout in place: read groups and their identifying attributes are filled
// in, missing Analyses and tracking_id groups are created and, for files
// older than 1.1, EventDetection_000 event tables carrying a variance
// column are rewritten with stdv = sqrt(variance). Pre-raw files get
// their Raw read groups created from the event records; legacy-raw files
// have their "Data" datasets renamed to "Signal". Files already at the
// current version are rejected with ErrAlreadyCurrent.
func UpdateLegacyFile(path string) error {
	status, err := Scan(path)
	if err != nil {
		return err
	}
	if !status.Valid {
		return &FormatError{Path: path, Reason: "cannot update invalid file"}
	}
	if !status.Version.Less(currentVersion) {
		return fmt.Errorf("%w: %s is version %s", ErrAlreadyCurrent, path, status.Version)
	}

	f, err := store.Open(path, store.ReadWrite)
	if err != nil {
		return err
	}
	if err := migrate(f, status); err != nil {
		f.Close()
		return fmt.Errorf("updating %s: %w", path, err)
	}
	return f.Close()
}

func migrate(f *store.File, status *Info) error {
	root := f.Root()
	for _, ri := range status.Reads {
		g, err := root.RequireGroup(readGroupName(ri.ReadNumber))
		if err != nil {
			return err
		}
		if status.Layout == LayoutLegacyRaw {
			if err := renameRawData(g); err != nil {
				return err
			}
		}
		if err := writeAttrs(g, map[string]any{
			"read_number": int32(ri.ReadNumber),
			"read_id":     ri.ReadID,
			"duration":    uint32(ri.Duration),
			"start_time":  uint64(ri.StartTime),
			"start_mux":   uint8(ri.StartMux),
		}, false); err != nil {
			return err
		}
	}

	if _, err := root.RequireGroup(analysesGroup); err != nil {
		return err
	}
	if _, err := root.RequireGroup(globalKeyGroup + "/tracking_id"); err != nil {
		return err
	}

	if status.legacy() && root.Has(analysesGroup+"/EventDetection_000") {
		if err := migrateEvents(root, status); err != nil {
			return err
		}
	}
	return root.SetAttr("file_version", CurrentVersion)
}

// renameRawData moves Data to Signal in a legacy-raw read group. The
// stored chunks are kept.
func renameRawData(g *store.Group) error {
	if !g.IsDataset(legacyRawDataset) || g.Has("Signal") {
		return nil
	}
	ds, err := g.Dataset(legacyRawDataset)
	if err != nil {
		return err
	}
	if err := g.Link("Signal", ds); err != nil {
		return err
	}
	return g.Unlink(legacyRawDataset)
}

func migrateEvents(root *store.Group, status *Info) error {
	reads, err := root.Group(analysesGroup + "/EventDetection_000/Reads")
	if err != nil {
		return err
	}
	names, err := reads.Members()
	if err != nil {
		return err
	}
	for _, name := range names {
		g, err := reads.Group(name)
		if err != nil {
			return err
		}
		num, err := g.AttrValue("read_number")
		if err != nil {
			return err
		}
		n, err := asInt(num)
		if err != nil {
			return err
		}
		i, ok := status.IndexOfNumber(n)
		if !ok {
			return fmt.Errorf("%w: event read %d has no catalog entry", ErrNotFound, n)
		}
		if err := g.SetAttr("read_id", status.Reads[i].ReadID); err != nil {
			return err
		}
		if err := upgradeEvents(g); err != nil {
			return fmt.Errorf("%s: %w", g.Path(), err)
		}
	}
	return nil
}

// upgradeEvents replaces a mean/variance/start/length event table with the
// current mean/stdv/start/length layout.
func upgradeEvents(g *store.Group) error {
	ds, err := g.Dataset("Events")
	if err != nil {
		return nil
	}
	if _, ok := ds.Type().Member("variance"); !ok {
		return nil
	}
	old, err := ds.Table()
	if err != nil {
		return err
	}
	mean, err := old.Float64s("mean")
	if err != nil {
		return err
	}
	variance, err := old.Float64s("variance")
	if err != nil {
		return err
	}
	start, err := old.Int64s("start")
	if err != nil {
		return err
	}
	length, err := old.Int64s("length")
	if err != nil {
		return err
	}
	stdv := make([]float64, len(variance))
	for i, v := range variance {
		stdv[i] = math.Sqrt(v)
	}
	events, err := dtype.NewTable(
		dtype.Column{Name: "mean", Data: mean},
		dtype.Column{Name: "stdv", Data: stdv},
		dtype.Column{Name: "start", Data: start},
		dtype.Column{Name: "length", Data: length},
	)
	if err != nil {
		return err
	}
	if err := g.Unlink("Events"); err != nil {
		return err
	}
	_, err = g.CreateDataset("Events", events, store.WithDeflate(analysisGzip))
	return err
}
