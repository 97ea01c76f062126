// Package filter implements the chunk filter pipeline used by container
// datasets.
//
// Filters transform chunk bytes on write (Encode, in pipeline order) and
// reverse the transform on read (Decode, in reverse order). Each stored
// chunk carries a mask: bit i set means filter i was skipped for that
// chunk.
//
// # Built-in Filters
//
//   - DEFLATE (ID 1): zlib via klauspost/compress, client data [level].
//   - Shuffle (ID 2): byte shuffle, client data [element size].
//   - Fletcher32 (ID 3): appends and verifies a checksum.
//   - LZ4 (ID 32004): pierrec/lz4 blocks, client data [block size].
//   - Zstandard (ID 32015): klauspost/compress/zstd, client data [level].
//
// # External Filters
//
// Other filters, notably VBZ (ID 32020) used for nanopore raw signals,
// are provided by the embedding program through [Register] or by Go
// plugins loaded from the directory named in HDF5_PLUGIN_PATH. A dataset
// whose mandatory filter is not registered fails with [ErrUnavailable].
package filter
