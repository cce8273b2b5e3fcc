// Package comet is a vectorized chunk-iteration core for a columnar query
// engine. It defines the pull-based execution contract shared by table scans,
// merges, filters, and aggregations: iterators hand back columnar chunks one
// batch at a time, schema projection and dictionary encoding are negotiated
// once before iteration begins, and cross-cutting concerns such as timing and
// tracing are layered on as transparent decorators.
//
// # Architecture
//
// The repository is organized around a small set of packages:
//
//   - pkg/schema: immutable column metadata with stable ids, plus the global
//     dictionary map used for low-cardinality encoding.
//   - pkg/chunk: the caller-owned columnar batch and its typed columns.
//   - pkg/iterator: the ChunkIterator contract, schema views, row-source
//     masks, concrete merge/union/source iterators, and decorators.
//   - pkg/stream: seekable, read-ahead-buffered byte-range input streams
//     (local file and S3) that feed scan-type iterators.
//   - pkg/formats/arrow: Chunk to Apache Arrow interchange.
//
// # Quick Start
//
// Pull chunks from an iterator until it reports end of stream:
//
//	it := iterator.NewSliceIterator(sch, src)
//	defer it.Close()
//
//	ch := chunk.New(it.OutputSchema())
//	for {
//		err := it.Fetch(ch)
//		if errors.Is(err, iterator.ErrEndOfStream) {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		process(ch)
//		ch.Reset()
//	}
package comet
