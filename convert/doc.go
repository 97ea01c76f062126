// Package convert implements the batch tools over fast5 files:
// multi-read to single-read and back, compression rewrites, compression
// checks, and extraction of read subsets, optionally binned by a
// sequencing summary column.
//
// Every tool follows the same shape. The input files are discovered,
// paired with outputs and processed as independent units on a bounded
// Pool. A unit that fails is logged and contributes nothing; it never
// aborts its siblings. Each output directory gets a filename_mapping.txt
// recording where every read or file went.
package convert
