package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robert-malhotra/go-fast5/fast5"
)

type fileResult struct {
	input   string
	outputs []string
	failed  int
	err     error
}

// MultiToSingle writes every read of the multi-read files found at input
// to its own single-read file. The reads of the n-th input file go to
// output/<n>/<read_id>.fast5.
func MultiToSingle(ctx context.Context, input, output string, o Options) (*Report, error) {
	if err := o.setup("multi-to-single"); err != nil {
		return nil, err
	}
	files, err := o.findFiles(input)
	if err != nil {
		return nil, err
	}
	mapping, err := NewMappingLog(output)
	if err != nil {
		return nil, err
	}
	defer mapping.Close()

	type unit struct {
		n    int
		path string
	}
	units := make([]unit, len(files))
	for i, f := range files {
		units[i] = unit{n: i, path: f}
	}

	rep := &Report{}
	o.Progress.Start(int64(len(files)))
	err = Map(ctx, o.pool(len(files)), units, func(u unit) fileResult {
		return o.splitFile(u.path, filepath.Join(output, strconv.Itoa(u.n)))
	}, func(res fileResult) {
		if res.err != nil {
			o.Logger.Error("converting file", "input", res.input, "error", res.err)
			o.Metrics.FilesFailed.Inc()
		}
		name := filepath.Base(res.input)
		for _, out := range res.outputs {
			if err := mapping.Add(name, out); err != nil {
				o.Logger.Error("writing filename mapping", "path", mapping.Path(), "error", err)
			}
		}
		rep.Extracted += len(res.outputs)
		rep.Files += len(res.outputs)
		rep.Failed += res.failed
		o.Progress.Add(1)
	})
	o.Progress.Finish()
	o.Metrics.FilesWritten.Add(float64(rep.Files))
	o.Logger.Info("converted multi-read files", "inputs", len(files), "reads", rep.Extracted, "failed", rep.Failed)
	if err == nil {
		err = mapping.Close()
	}
	return rep, err
}

// splitFile writes the reads of one multi-read file into dir. Reads that
// fail are logged and skipped.
func (o *Options) splitFile(path, dir string) fileResult {
	res := fileResult{input: path}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.err = err
		return res
	}
	ft, err := fast5.DetectType(path)
	if err != nil {
		res.err = err
		return res
	}
	if ft != fast5.FileTypeMulti {
		res.err = fmt.Errorf("%w: %s is a %s file", fast5.ErrFormat, path, ft)
		return res
	}
	m, err := fast5.OpenMulti(path, fast5.ModeRead)
	if err != nil {
		res.err = err
		return res
	}
	defer m.Close()
	ids, err := m.ReadIDs()
	if err != nil {
		res.err = err
		return res
	}
	rel := filepath.Base(dir)
	for _, id := range ids {
		o.Metrics.ReadsProcessed.Inc()
		name := id + Extension
		if err := o.splitRead(m, id, filepath.Join(dir, name)); err != nil {
			o.Logger.Error("converting read", "read_id", id, "input", path, "error", err)
			o.Metrics.ReadsFailed.Inc()
			res.failed++
			continue
		}
		o.Metrics.ReadsExtracted.Inc()
		res.outputs = append(res.outputs, filepath.Join(rel, name))
	}
	return res
}

func (o *Options) splitRead(m *fast5.MultiFile, id, out string) error {
	r, err := m.MultiRead(id)
	if err != nil {
		return err
	}
	if err := r.WriteSingle(out); err != nil {
		os.Remove(out)
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}
