package iterator

import (
	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/schema"
)

// MaskMergeIterator merges sorted inputs by replaying a row-source mask
// sequence recorded by an earlier HeapMergeIterator pass. This is the value
// phase of two-phase columnar compaction: no key comparisons happen here, the
// masks dictate which input supplies each row and which rows were superseded.
//
// The buffer must already be flipped to read mode.
type MaskMergeIterator struct {
	Base

	inputs  []Iterator
	cursors []*mergeCursor
	started bool
	buf     *MaskBuffer
	merged  uint64
}

var _ Iterator = (*MaskMergeIterator)(nil)

// NewMaskMergeIterator creates a mask-driven merge over inputs. The inputs
// must be the same sorted sources, in the same order, that produced the mask
// sequence in buf.
func NewMaskMergeIterator(sch *schema.Schema, buf *MaskBuffer, inputs ...Iterator) *MaskMergeIterator {
	it := &MaskMergeIterator{inputs: inputs, buf: buf}
	it.Base = NewBase(it, sch)
	return it
}

// Fetch replays masks, pulling each row from the input the mask names and
// dropping rows flagged Skip.
func (it *MaskMergeIterator) Fetch(c *chunk.Chunk) error {
	return it.checked(c, it.fetch(c))
}

func (it *MaskMergeIterator) fetch(c *chunk.Chunk) error {
	it.assertOpen()
	if !it.started {
		if err := it.start(); err != nil {
			return err
		}
	}

	for c.NumRows() < it.ChunkSize() {
		mask, ok, err := it.buf.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		src := int(mask.SourceID())
		if src >= len(it.cursors) {
			return errors.Newf(errors.ErrorTypeData, "mask names source %d, merge has %d inputs", src, len(it.cursors))
		}
		cur := it.cursors[src]
		if cur.ch == nil {
			return errors.Newf(errors.ErrorTypeData, "mask names exhausted source %d", src)
		}

		if mask.Skip() {
			it.merged++
		} else if err := c.AppendRowFrom(cur.ch, cur.pos); err != nil {
			return err
		}

		done, err := cur.advance()
		if err != nil {
			return err
		}
		if done {
			cur.ch = nil
		}
	}

	if c.Empty() {
		return ErrEndOfStream
	}
	return nil
}

func (it *MaskMergeIterator) start() error {
	it.cursors = make([]*mergeCursor, len(it.inputs))
	for i, in := range it.inputs {
		cur := &mergeCursor{it: in, source: uint16(i), ch: chunk.New(in.OutputSchema())}
		done, err := cur.refill()
		if err != nil {
			return err
		}
		if done {
			cur.ch = nil
		}
		it.cursors[i] = cur
	}
	it.started = true
	return nil
}

// InitEncodedSchema applies the substitution locally and in every input.
func (it *MaskMergeIterator) InitEncodedSchema(dicts schema.GlobalDictMap) error {
	if err := it.Base.InitEncodedSchema(dicts); err != nil {
		return err
	}
	for _, in := range it.inputs {
		if err := in.InitEncodedSchema(dicts); err != nil {
			return err
		}
	}
	return nil
}

// InitOutputSchema applies the projection locally and in every input.
func (it *MaskMergeIterator) InitOutputSchema(unused map[schema.ColumnID]struct{}) error {
	if err := it.Base.InitOutputSchema(unused); err != nil {
		return err
	}
	for _, in := range it.inputs {
		if err := in.InitOutputSchema(unused); err != nil {
			return err
		}
	}
	return nil
}

// MergedRows returns rows skipped during replay plus the inputs' counts.
func (it *MaskMergeIterator) MergedRows() uint64 {
	total := it.merged
	for _, in := range it.inputs {
		total += in.MergedRows()
	}
	return total
}

// Close closes every input. The mask buffer is owned by the caller and stays
// open.
func (it *MaskMergeIterator) Close() {
	for _, in := range it.inputs {
		in.Close()
	}
	it.inputs = nil
	it.cursors = nil
	it.markClosed()
}
