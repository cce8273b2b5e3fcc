package iterator

import (
	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/schema"
)

// SliceIterator serves the rows of one in-memory chunk in batches. It backs
// tests, the CLI, and any operator that materialized its input. It supports
// row ordinals (the position of each row in the source chunk) but is not
// merge-capable.
type SliceIterator struct {
	Base

	src *chunk.Chunk
	pos int

	// output column index -> source column index, resolved on first fetch
	// once the projection is frozen.
	colMap []int
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator creates an iterator over src, whose columns must match
// sch.
func NewSliceIterator(sch *schema.Schema, src *chunk.Chunk) *SliceIterator {
	return NewSliceIteratorWithChunkSize(sch, src, DefaultChunkSize)
}

// NewSliceIteratorWithChunkSize is like NewSliceIterator with an explicit
// chunk-size target.
func NewSliceIteratorWithChunkSize(sch *schema.Schema, src *chunk.Chunk, chunkSize int) *SliceIterator {
	it := &SliceIterator{src: src}
	it.Base = NewBaseWithChunkSize(it, sch, chunkSize)
	return it
}

// Fetch appends up to ChunkSize rows projected onto the output schema.
func (it *SliceIterator) Fetch(c *chunk.Chunk) error {
	return it.checked(c, it.fetch(c, nil))
}

// FetchWithRowIDs also appends each row's ordinal in the source chunk.
func (it *SliceIterator) FetchWithRowIDs(c *chunk.Chunk, rowIDs *[]uint32) error {
	return it.checked(c, it.fetch(c, rowIDs))
}

func (it *SliceIterator) fetch(c *chunk.Chunk, rowIDs *[]uint32) error {
	it.assertOpen()
	if it.pos >= it.src.NumRows() {
		return ErrEndOfStream
	}
	if it.colMap == nil {
		it.resolveColumns()
	}

	end := it.pos + it.ChunkSize()
	if end > it.src.NumRows() {
		end = it.src.NumRows()
	}
	for r := it.pos; r < end; r++ {
		for j, srcIdx := range it.colMap {
			if err := c.Column(j).AppendFrom(it.src.Column(srcIdx), r); err != nil {
				return err
			}
		}
		if rowIDs != nil {
			*rowIDs = append(*rowIDs, uint32(r))
		}
	}
	it.pos = end
	return nil
}

// resolveColumns maps output schema positions back to source chunk columns.
// Projection is frozen before iteration starts, so one resolution suffices.
func (it *SliceIterator) resolveColumns() {
	out := it.OutputSchema()
	it.colMap = make([]int, out.NumFields())
	for j := 0; j < out.NumFields(); j++ {
		srcIdx, ok := it.Schema().IndexOf(out.Field(j).ID())
		if !ok {
			panic("iterator: output schema references a column absent from the base schema")
		}
		it.colMap[j] = srcIdx
	}
}

// Close drops the source chunk reference.
func (it *SliceIterator) Close() {
	it.src = nil
	it.markClosed()
}
