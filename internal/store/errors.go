// Package store implements the hierarchical container that fast5 files
// are written in: a tree of groups holding named subgroups, typed
// n-dimensional datasets and attributes, with hard links and per-dataset
// chunk filter pipelines.
//
// A file opened for writing keeps its object graph in memory and persists
// it on Flush or Close. Dataset chunks are written as soon as the dataset
// is created. Objects no longer reachable from the root group are dropped
// at the next flush.
package store

import "errors"

// Common errors
var (
	ErrFormat      = errors.New("not a container file")
	ErrNotFound    = errors.New("object not found")
	ErrExists      = errors.New("object already exists")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrInvalidPath = errors.New("invalid path")
	ErrReadOnly    = errors.New("file is read-only")
	ErrClosed      = errors.New("file is closed")
	ErrCrossFile   = errors.New("objects belong to different files")
	ErrType        = errors.New("unexpected datatype")
	ErrUnsupported = errors.New("unsupported feature")
)
