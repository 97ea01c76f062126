package convert

import (
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// Defaults shared by the tools.
const (
	DefaultBatchSize = 4000
	DefaultBase      = "batch"
)

// Options holds the settings every tool understands. The zero value
// processes a directory non-recursively on one worker without output.
type Options struct {
	// Threads is the number of files processed at once.
	Threads int
	// Recursive searches the input directory tree.
	Recursive bool
	// FollowSymlinks enters symlinked directories when searching
	// recursively.
	FollowSymlinks bool
	// Pool overrides Threads when several tools share workers.
	Pool *Pool

	Logger   *slog.Logger
	Progress Progress
	Metrics  *Metrics
}

// BatchOptions configures the tools that write multi-read files.
type BatchOptions struct {
	Options
	// BatchSize is the maximum number of reads per output file.
	BatchSize int
	// FilenameBase prefixes output file names.
	FilenameBase string
	// Compression, when set, re-encodes raw data that does not already
	// use it.
	Compression *fast5.Compression
}

func (o *Options) setup(tool string) error {
	if o.Threads < 0 {
		return fmt.Errorf("%w, not %d", ErrThreads, o.Threads)
	}
	if o.Threads == 0 {
		o.Threads = 1
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	o.Logger = o.Logger.With("tool", tool)
	if o.Progress == nil {
		o.Progress = nopProgress{}
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics(tool)
	}
	return nil
}

func (o *BatchOptions) setup(tool string) error {
	if err := o.Options.setup(tool); err != nil {
		return err
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchSize < 0 {
		return fmt.Errorf("%w, not %d", ErrBatchSize, o.BatchSize)
	}
	if o.FilenameBase == "" {
		o.FilenameBase = DefaultBase
	}
	if o.Compression != nil {
		return o.Compression.Available()
	}
	return nil
}

// pool returns the shared pool or one sized for at most limit workers.
func (o *Options) pool(limit int) *Pool {
	if o.Pool != nil {
		return o.Pool
	}
	return NewPool(min(o.Threads, max(1, limit)))
}

func (o *BatchOptions) copyOptions() []fast5.CopyOption {
	if o.Compression == nil {
		return nil
	}
	return []fast5.CopyOption{fast5.WithTargetCompression(*o.Compression)}
}

func (o *Options) findFiles(input string) ([]string, error) {
	files, err := FindFiles(input, o.Recursive, o.FollowSymlinks)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s (recursive=%t)", ErrNoInput, input, o.Recursive)
	}
	return files, nil
}

// Report summarises a run.
type Report struct {
	// Requested is the number of reads asked for by subset and demux.
	Requested int
	// Extracted is the number of reads written.
	Extracted int
	// Failed counts reads or files that could not be converted.
	Failed int
	// Files is the number of output files written.
	Files int
	// BytesIn and BytesOut are the sizes before and after a compression
	// rewrite.
	BytesIn  int64
	BytesOut int64
}

// NotFound returns the number of requested reads missing from all inputs.
func (r *Report) NotFound() int {
	return max(0, r.Requested-r.Extracted-r.Failed)
}

func numOutputs(reads, batch int) int {
	return (reads + batch - 1) / batch
}

func logOutcome(log *slog.Logger, rep *Report) {
	log.Info("reads extracted", "count", rep.Extracted, "files", rep.Files)
	if n := rep.NotFound(); n > 0 {
		log.Warn("reads not found", "count", n)
	}
	if rep.Failed > 0 {
		log.Warn("reads failed", "count", rep.Failed)
	}
}
