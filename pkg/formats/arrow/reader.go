package arrow

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/iterator"
)

// RecordReader adapts a chunk iterator to a stream of Arrow records, one per
// fetched chunk.
type RecordReader struct {
	it  iterator.Iterator
	as  *arrow.Schema
	mem memory.Allocator
	buf *chunk.Chunk
}

// NewRecordReader wraps it. The reader owns the iterator and closes it.
func NewRecordReader(it iterator.Iterator, mem memory.Allocator) (*RecordReader, error) {
	as, err := ToArrowSchema(it.OutputSchema())
	if err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &RecordReader{
		it:  it,
		as:  as,
		mem: mem,
		buf: chunk.New(it.OutputSchema()),
	}, nil
}

// Schema returns the Arrow schema of the records.
func (r *RecordReader) Schema() *arrow.Schema { return r.as }

// Read fetches the next chunk and returns it as a record the caller must
// release. Returns iterator.ErrEndOfStream once the source is exhausted.
func (r *RecordReader) Read() (arrow.Record, error) {
	r.buf.Reset()
	if err := r.it.Fetch(r.buf); err != nil {
		return nil, err
	}
	return ToRecord(r.buf, r.mem)
}

// Close closes the underlying iterator.
func (r *RecordReader) Close() {
	r.it.Close()
}
