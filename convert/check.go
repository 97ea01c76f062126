package convert

import (
	"log/slog"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// CompressionResult is the raw data compression of one read.
type CompressionResult struct {
	File   string
	ReadID string
	// Compression is the registry entry matching the raw data filters.
	// Known is false when none matches, and Filters describes the
	// pipeline instead.
	Compression fast5.Compression
	Known       bool
	Filters     string
}

// Name returns the compression name, or the filter description for an
// unknown pipeline.
func (r CompressionResult) Name() string {
	if r.Known {
		return r.Compression.String()
	}
	return r.Filters
}

// CheckCompression reports the raw data compression of the first read of
// every fast5 file found at input, or of every read when allReads is set.
// Files and reads that cannot be inspected are logged and skipped.
func CheckCompression(input string, allReads bool, o Options) ([]CompressionResult, error) {
	if err := o.setup("check-compression"); err != nil {
		return nil, err
	}
	files, err := o.findFiles(input)
	if err != nil {
		return nil, err
	}
	var results []CompressionResult
	for _, path := range files {
		res, err := checkFile(path, allReads, o.Logger)
		if err != nil {
			o.Logger.Error("checking file", "input", path, "error", err)
			o.Metrics.FilesFailed.Inc()
			continue
		}
		results = append(results, res...)
	}
	return results, nil
}

func checkFile(path string, allReads bool, log *slog.Logger) ([]CompressionResult, error) {
	f, err := fast5.OpenAny(path, fast5.ModeRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reads, err := f.Reads()
	if err != nil {
		return nil, err
	}
	var results []CompressionResult
	for _, r := range reads {
		filters, err := r.RawCompression()
		if err != nil {
			log.Warn("reading raw compression", "input", path, "read_id", r.ReadID(), "error", err)
			continue
		}
		c, known := fast5.DetectCompression(filters)
		results = append(results, CompressionResult{
			File:        path,
			ReadID:      r.ReadID(),
			Compression: c,
			Known:       known,
			Filters:     fast5.DescribeFilters(filters),
		})
		if !allReads {
			break
		}
	}
	return results, nil
}
