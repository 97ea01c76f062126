package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// tempSuffix marks the output of an in-place rewrite until it replaces
// the input.
const tempSuffix = ".tmp.compressed"

// CompressOptions configures Compress.
type CompressOptions struct {
	Options
	// Target is the raw data compression of the output.
	Target fast5.Compression
	// InPlace replaces every input file with its rewrite.
	InPlace bool
	// Sanitize leaves out optional groups such as Analyses.
	Sanitize bool
}

type compressResult struct {
	input    string
	reads    int
	bytesIn  int64
	bytesOut int64
	err      error
}

// Compress rewrites the fast5 files found at input with the raw data
// compression o.Target. Raw data already using it is copied without
// decoding. Outputs mirror the input tree below output, or replace the
// inputs when o.InPlace is set, in which case output must be empty.
func Compress(ctx context.Context, input, output string, o CompressOptions) (*Report, error) {
	if err := o.setup("compress"); err != nil {
		return nil, err
	}
	if err := o.Target.Available(); err != nil {
		return nil, err
	}
	if err := o.checkPaths(input, output); err != nil {
		return nil, err
	}
	files, err := o.findFiles(input)
	if err != nil {
		return nil, err
	}
	base := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		base = filepath.Dir(input)
	}

	rep := &Report{}
	o.Progress.Start(int64(len(files)))
	err = Map(ctx, o.pool(len(files)), files, func(in string) compressResult {
		out := in + tempSuffix
		if !o.InPlace {
			rel, err := filepath.Rel(base, in)
			if err != nil {
				return compressResult{input: in, err: err}
			}
			out = filepath.Join(output, rel)
		}
		return o.compressFile(in, out)
	}, func(res compressResult) {
		o.Progress.Add(1)
		if res.err != nil {
			o.Logger.Error("compressing file", "input", res.input, "error", res.err)
			o.Metrics.FilesFailed.Inc()
			rep.Failed++
			return
		}
		rep.Files++
		rep.Extracted += res.reads
		rep.BytesIn += res.bytesIn
		rep.BytesOut += res.bytesOut
		o.Metrics.FilesWritten.Inc()
		o.Metrics.ReadsExtracted.Add(float64(res.reads))
	})
	o.Progress.Finish()
	o.Logger.Info("compressed files", "files", rep.Files, "reads", rep.Extracted, "failed", rep.Failed,
		"compression", o.Target.String())
	return rep, err
}

func (o *CompressOptions) checkPaths(input, output string) error {
	if o.InPlace {
		if o.Sanitize {
			return ErrSanitizeInPlace
		}
		if output != "" {
			return fmt.Errorf("%w: an output path cannot be combined with an in-place rewrite", ErrSamePath)
		}
		return nil
	}
	if output == "" {
		return fmt.Errorf("%w: no output path given", ErrSamePath)
	}
	in, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("%w, or use an in-place rewrite: %s", ErrSamePath, input)
	}
	return nil
}

// compressFile writes the rewrite of in to out. A file that fails leaves
// no output behind. In-place rewrites replace in by renaming out over it.
func (o *CompressOptions) compressFile(in, out string) (res compressResult) {
	res.input = in
	defer func() {
		if res.err != nil {
			os.Remove(out)
		}
	}()
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		res.err = err
		return res
	}
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		res.err = err
		return res
	}
	if info, err := os.Stat(in); err == nil {
		res.bytesIn = info.Size()
	}

	opts := []fast5.CopyOption{fast5.WithTargetCompression(o.Target)}
	if o.Sanitize {
		opts = append(opts, fast5.WithSanitize())
	}
	ft, err := fast5.DetectType(in)
	if err != nil {
		res.err = err
		return res
	}
	if ft == fast5.FileTypeMulti {
		res.reads, res.err = o.compressMulti(in, out, opts)
	} else {
		res.reads, res.err = o.compressSingle(in, out, opts)
	}
	if res.err != nil {
		return res
	}

	if info, err := os.Stat(out); err == nil {
		res.bytesOut = info.Size()
	}
	if o.InPlace {
		res.err = os.Rename(out, in)
	}
	return res
}

func (o *CompressOptions) compressMulti(in, out string, opts []fast5.CopyOption) (n int, err error) {
	src, err := fast5.OpenMulti(in, fast5.ModeRead)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	dst, err := fast5.OpenMulti(out, fast5.ModeAppend)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()
	reads, err := src.Reads()
	if err != nil {
		return 0, err
	}
	for _, r := range reads {
		o.Metrics.ReadsProcessed.Inc()
		if err := dst.AddExistingRead(r, opts...); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (o *CompressOptions) compressSingle(in, out string, opts []fast5.CopyOption) (int, error) {
	src, err := fast5.OpenSingle(in, fast5.ModeRead)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	o.Metrics.ReadsProcessed.Inc()
	if err := src.CopyTo(out, opts...); err != nil {
		return 0, err
	}
	return 1, nil
}
