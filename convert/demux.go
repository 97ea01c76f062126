package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DemuxOptions configures Demux.
type DemuxOptions struct {
	BatchOptions
	// ReadIDColumn and BinColumn name the summary columns holding the
	// read id and the bin. They default to read_id and
	// barcode_arrangement.
	ReadIDColumn string
	BinColumn    string
}

// Demux bins the reads found at input by the BinColumn of the summary
// file and writes every bin to its own subdirectory of output, split
// into multi-read files of at most BatchSize reads. All bins share one
// pool of workers.
func Demux(ctx context.Context, input, output, summary string, o DemuxOptions) (*Report, error) {
	if err := o.setup("demux"); err != nil {
		return nil, err
	}
	if o.ReadIDColumn == "" {
		o.ReadIDColumn = ReadIDColumn
	}
	if o.BinColumn == "" {
		o.BinColumn = BarcodeColumn
	}
	bins, err := ParseSummary(summary, o.ReadIDColumn, o.BinColumn)
	if err != nil {
		return nil, err
	}
	requested := 0
	for name, reads := range bins {
		if err := checkBinName(name); err != nil {
			return nil, err
		}
		requested += len(reads)
	}
	if requested == 0 {
		return nil, ErrNoReads
	}
	files, err := o.findFiles(input)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, reads := range bins {
		total += min(numOutputs(len(reads), o.BatchSize), len(files))
	}
	pool := o.pool(total)

	names := make([]string, 0, len(bins))
	for name := range bins {
		names = append(names, name)
	}
	slices.Sort(names)
	workers := make([]*filterWorker, 0, len(names))
	for _, name := range names {
		dir := filepath.Join(output, name)
		w, err := newFilterWorker(files, dir, bins[name], pool, &o.BatchOptions)
		if err != nil {
			for _, w := range workers {
				w.mapping.Close()
			}
			return nil, err
		}
		workers = append(workers, w)
	}

	o.Progress.Start(int64(requested + len(files)*len(bins)))
	if pool.Size() == 1 {
		for _, w := range workers {
			if err = w.run(ctx); err != nil {
				break
			}
		}
	} else {
		var g errgroup.Group
		for _, w := range workers {
			g.Go(func() error { return w.run(ctx) })
		}
		err = g.Wait()
	}
	o.Progress.Finish()

	rep := &Report{}
	for _, w := range workers {
		w.report(rep)
	}
	o.Metrics.FilesWritten.Add(float64(rep.Files))
	logOutcome(o.Logger, rep)
	return rep, err
}

// checkBinName rejects bins that would not map to a single directory
// directly below the output.
func checkBinName(name string) error {
	if name == "." || strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q", ErrBinName, name)
	}
	return nil
}
