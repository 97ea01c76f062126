package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// SubsetOptions configures Subset.
type SubsetOptions struct {
	BatchOptions
	// FileList names the only input files to search, one per line or in
	// a read_id-style single column. Entries are paths, or names relative
	// to the input directory.
	FileList string
}

// Subset copies the reads in reads from the fast5 files found at input
// into multi-read files <base><n>.fast5 in output, holding at most
// BatchSize reads each.
func Subset(ctx context.Context, input, output string, reads ReadSet, o SubsetOptions) (*Report, error) {
	if err := o.setup("subset"); err != nil {
		return nil, err
	}
	if len(reads) == 0 {
		return nil, ErrNoReads
	}
	files, err := o.findFiles(input)
	if err != nil {
		return nil, err
	}
	if o.FileList != "" {
		if files, err = restrictFiles(files, input, o.FileList); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, err
	}

	pool := o.pool(min(numOutputs(len(reads), o.BatchSize), len(files)))
	w, err := newFilterWorker(files, output, reads, pool, &o.BatchOptions)
	if err != nil {
		return nil, err
	}
	o.Progress.Start(int64(len(reads) + len(files)))
	err = w.run(ctx)
	o.Progress.Finish()

	rep := &Report{}
	w.report(rep)
	o.Metrics.FilesWritten.Add(float64(rep.Files))
	logOutcome(o.Logger, rep)
	return rep, err
}

// restrictFiles keeps the files named in the list at listPath. Every
// entry must exist.
func restrictFiles(files []string, input, listPath string) ([]string, error) {
	names, err := ReadList(listPath)
	if err != nil {
		return nil, err
	}
	allowed := map[string]bool{}
	for _, name := range names.IDs() {
		p := name
		if _, err := os.Stat(p); err != nil {
			p = filepath.Join(input, name)
			if _, err := os.Stat(p); err != nil {
				return nil, fmt.Errorf("%s from file list %s does not exist", name, listPath)
			}
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		allowed[abs] = true
	}
	var kept []string
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil && allowed[abs] {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: none of the files in %s are in %s", ErrNoInput, listPath, input)
	}
	return kept, nil
}
