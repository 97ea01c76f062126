package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// SingleToMulti packs the single-read files found at input into
// multi-read files output/<base>_<n>.fast5 of at most BatchSize reads.
// Existing output files are appended to.
func SingleToMulti(ctx context.Context, input, output string, o BatchOptions) (*Report, error) {
	if err := o.setup("single-to-multi"); err != nil {
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

	type batch struct {
		inputs []string
		output string
	}
	var batches []batch
	for n, i := 0, 0; i < len(files); n, i = n+1, i+o.BatchSize {
		batches = append(batches, batch{
			inputs: files[i:min(i+o.BatchSize, len(files))],
			output: filepath.Join(output, fmt.Sprintf("%s_%d%s", o.FilenameBase, n, Extension)),
		})
	}

	rep := &Report{}
	o.Progress.Start(int64(len(batches)))
	err = Map(ctx, o.pool(len(batches)), batches, func(b batch) fileResult {
		return o.packFiles(b.inputs, b.output)
	}, func(res fileResult) {
		if res.err != nil {
			o.Logger.Error("writing multi-read file", "output", res.input, "error", res.err)
			o.Metrics.FilesFailed.Inc()
		}
		name := filepath.Base(res.input)
		for _, in := range res.outputs {
			if err := mapping.Add(filepath.Base(in), name); err != nil {
				o.Logger.Error("writing filename mapping", "path", mapping.Path(), "error", err)
			}
		}
		if len(res.outputs) > 0 {
			rep.Files++
		}
		rep.Extracted += len(res.outputs)
		rep.Failed += res.failed
		o.Progress.Add(1)
	})
	o.Progress.Finish()
	o.Metrics.FilesWritten.Add(float64(rep.Files))
	o.Logger.Info("converted single-read files", "inputs", len(files), "outputs", rep.Files, "failed", rep.Failed)
	if err == nil {
		err = mapping.Close()
	}
	return rep, err
}

// packFiles adds the reads of inputs to the multi-read file at output. In
// the result, input is the output file and outputs lists the inputs that
// were added.
func (o *BatchOptions) packFiles(inputs []string, output string) (res fileResult) {
	res.input = output
	if _, err := os.Stat(output); err == nil {
		o.Logger.Info("appending new reads to existing file", "output", output)
	}
	m, err := fast5.OpenMulti(output, fast5.ModeAppend)
	if err != nil {
		res.err = err
		return res
	}
	defer func() {
		if err := m.Close(); err != nil {
			res.err = err
		}
	}()
	for _, in := range inputs {
		if err := o.packFile(m, in); err != nil {
			o.Logger.Error("failed to add single-read file", "input", in, "output", output, "error", err)
			o.Metrics.ReadsFailed.Inc()
			res.failed++
			continue
		}
		o.Metrics.ReadsExtracted.Inc()
		res.outputs = append(res.outputs, in)
	}
	return res
}

func (o *BatchOptions) packFile(m *fast5.MultiFile, path string) error {
	ft, err := fast5.DetectType(path)
	if err != nil {
		return err
	}
	if ft != fast5.FileTypeSingle {
		return fmt.Errorf("%w: %s is a %s file", fast5.ErrFormat, path, ft)
	}
	f, err := fast5.OpenSingle(path, fast5.ModeRead)
	if err != nil {
		return err
	}
	defer f.Close()
	o.Metrics.ReadsProcessed.Inc()
	if _, err := m.MultiRead(f.ReadID()); err == nil {
		return fmt.Errorf("%w: read %s in %s", fast5.ErrExists, f.ReadID(), m.Path())
	}
	if err := m.AddExistingRead(f, o.copyOptions()...); err != nil {
		_ = m.DeleteRead(f.ReadID())
		return err
	}
	return nil
}
