package convert

import "errors"

// Setup errors. A tool returns one of these, wrapped, before any file is
// written.
var (
	ErrNoInput         = errors.New("no input fast5 files found")
	ErrNoReads         = errors.New("no reads to extract")
	ErrBatchSize       = errors.New("batch size must be a positive integer")
	ErrThreads         = errors.New("number of threads must be a positive integer")
	ErrSamePath        = errors.New("input and output must be different locations")
	ErrSanitizeInPlace = errors.New("sanitizing requires a separate output location")
	ErrBinName         = errors.New("bin name is not a plain directory name")
)
