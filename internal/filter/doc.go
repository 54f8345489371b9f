// Package filter implements the chunk filter pipeline in both directions.
//
// # Filters
//
//   - Deflate (ID 1): zlib streams via github.com/klauspost/compress/zlib.
//   - Shuffle (ID 2): byte transposition by element size.
//   - Fletcher-32 (ID 3): checksum appended to the chunk.
//   - Snappy (ID 32003): raw snappy blocks via github.com/golang/snappy.
//   - Zstandard (ID 32015): single zstd frames via github.com/klauspost/compress/zstd.
//
// # Pipeline
//
// Encoding applies filters in declaration order; decoding applies them in
// reverse. Bit i of a chunk's filter mask records that filter i was
// skipped when the chunk was written. Optional filters that fail, or
// compressors that do not shrink the chunk, are skipped and masked.
package filter
