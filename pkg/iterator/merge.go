package iterator

import (
	"container/heap"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/schema"
)

// MergeOptions configures a HeapMergeIterator.
type MergeOptions struct {
	// NumKeyColumns is the length of the sort-key prefix. Inputs must be
	// sorted ascending by these columns, which must survive any output
	// projection.
	NumKeyColumns int

	// Dedup enables multi-version supersede semantics: among rows with an
	// identical key, only the row from the highest source ordinal survives.
	// Superseded rows are dropped from plain fetches and counted in
	// MergedRows; masked fetches emit them flagged Skip so a replaying
	// value phase can advance past them.
	Dedup bool

	// ChunkSize overrides the soft row target (0 means DefaultChunkSize).
	ChunkSize int
}

// HeapMergeIterator performs an ordered k-way merge of sorted inputs. It is
// merge-capable: a masked fetch emits one RowSourceMask per row recording the
// producing input's ordinal, in row order.
type HeapMergeIterator struct {
	Base

	opts    MergeOptions
	inputs  []Iterator
	cursors mergeHeap
	started bool

	// lastKey holds the key of the most recently surviving row, for dedup.
	lastKey  []interface{}
	havePrev bool
	merged   uint64
}

var _ Iterator = (*HeapMergeIterator)(nil)

// NewHeapMergeIterator creates a merge over inputs, which must share sch and
// be sorted ascending by the key prefix.
func NewHeapMergeIterator(sch *schema.Schema, opts MergeOptions, inputs ...Iterator) *HeapMergeIterator {
	if opts.NumKeyColumns <= 0 {
		opts.NumKeyColumns = 1
	}
	it := &HeapMergeIterator{opts: opts, inputs: inputs}
	it.Base = NewBaseWithChunkSize(it, sch, opts.ChunkSize)
	return it
}

// Fetch merges rows into c, dropping superseded duplicates when dedup is on.
func (it *HeapMergeIterator) Fetch(c *chunk.Chunk) error {
	return it.checked(c, it.fetch(c, nil))
}

// FetchWithMasks merges rows into c and appends one mask per emitted row.
// With dedup on, superseded rows are emitted too, flagged Skip, so the mask
// sequence lets a value phase replay the exact cursor movements.
func (it *HeapMergeIterator) FetchWithMasks(c *chunk.Chunk, masks *[]RowSourceMask) error {
	if masks == nil {
		return it.Fetch(c)
	}
	return it.checked(c, it.fetch(c, masks))
}

func (it *HeapMergeIterator) fetch(c *chunk.Chunk, masks *[]RowSourceMask) error {
	it.assertOpen()
	if !it.started {
		if err := it.start(); err != nil {
			return err
		}
	}

	nKeys := it.opts.NumKeyColumns
	for c.NumRows() < it.ChunkSize() && it.cursors.Len() > 0 {
		cur := it.cursors[0]

		superseded := it.opts.Dedup && it.havePrev && it.keyEquals(cur)
		if superseded {
			it.merged++
			if masks != nil {
				if err := c.AppendRowFrom(cur.ch, cur.pos); err != nil {
					return err
				}
				*masks = append(*masks, NewRowSourceMask(cur.source, true))
			}
		} else {
			if err := c.AppendRowFrom(cur.ch, cur.pos); err != nil {
				return err
			}
			if masks != nil {
				*masks = append(*masks, NewRowSourceMask(cur.source, false))
			}
			it.rememberKey(cur, nKeys)
		}

		done, err := cur.advance()
		if err != nil {
			return err
		}
		if done {
			heap.Pop(&it.cursors)
		} else {
			heap.Fix(&it.cursors, 0)
		}
	}

	if c.Empty() {
		return ErrEndOfStream
	}
	return nil
}

// start initializes cursors by priming one chunk from every input.
func (it *HeapMergeIterator) start() error {
	it.cursors = make(mergeHeap, 0, len(it.inputs))
	for i, in := range it.inputs {
		if i > MaxSourceID {
			return errors.Newf(errors.ErrorTypeValidation, "merge fan-in %d exceeds maximum source ordinal", len(it.inputs))
		}
		cur := &mergeCursor{
			it:      in,
			source:  uint16(i),
			ch:      chunk.New(in.OutputSchema()),
			numKeys: it.opts.NumKeyColumns,
		}
		done, err := cur.refill()
		if err != nil {
			return err
		}
		if !done {
			it.cursors = append(it.cursors, cur)
		}
	}
	heap.Init(&it.cursors)
	it.started = true
	return nil
}

func (it *HeapMergeIterator) keyEquals(cur *mergeCursor) bool {
	for k := 0; k < it.opts.NumKeyColumns; k++ {
		col := cur.ch.Column(k)
		if chunk.CompareValues(col.Type(), col.Value(cur.pos), it.lastKey[k]) != 0 {
			return false
		}
	}
	return true
}

func (it *HeapMergeIterator) rememberKey(cur *mergeCursor, nKeys int) {
	if it.lastKey == nil {
		it.lastKey = make([]interface{}, nKeys)
	}
	for k := 0; k < nKeys; k++ {
		it.lastKey[k] = cur.ch.Column(k).Value(cur.pos)
	}
	it.havePrev = true
}

// InitEncodedSchema applies the substitution locally and in every input.
func (it *HeapMergeIterator) InitEncodedSchema(dicts schema.GlobalDictMap) error {
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

// InitOutputSchema applies the projection locally and in every input. The
// key prefix must survive the projection; merging on pruned keys is a caller
// error surfaced by the first comparison.
func (it *HeapMergeIterator) InitOutputSchema(unused map[schema.ColumnID]struct{}) error {
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

// MergedRows returns superseded duplicates plus the inputs' own counts.
func (it *HeapMergeIterator) MergedRows() uint64 {
	total := it.merged
	for _, in := range it.inputs {
		total += in.MergedRows()
	}
	return total
}

// Close closes every input.
func (it *HeapMergeIterator) Close() {
	for _, in := range it.inputs {
		in.Close()
	}
	it.inputs = nil
	it.cursors = nil
	it.markClosed()
}

// mergeCursor tracks one input's current chunk and row position.
type mergeCursor struct {
	it      Iterator
	source  uint16
	ch      *chunk.Chunk
	pos     int
	numKeys int
}

// advance moves to the next row, refilling from the input as needed. done is
// true once the input is exhausted.
func (cu *mergeCursor) advance() (done bool, err error) {
	cu.pos++
	if cu.pos < cu.ch.NumRows() {
		return false, nil
	}
	return cu.refill()
}

func (cu *mergeCursor) refill() (done bool, err error) {
	cu.ch.Reset()
	cu.pos = 0
	fetchErr := cu.it.Fetch(cu.ch)
	if fetchErr == ErrEndOfStream {
		return true, nil
	}
	if fetchErr != nil {
		return false, fetchErr
	}
	return false, nil
}

// mergeHeap orders cursors by key ascending, breaking ties on source ordinal
// descending so the newest source surfaces first among equal keys.
type mergeHeap []*mergeCursor

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	cmp := chunk.CompareRows(h[i].ch, h[i].pos, h[j].ch, h[j].pos, h[i].numKeys)
	if cmp != 0 {
		return cmp < 0
	}
	return h[i].source > h[j].source
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*mergeCursor)) }

func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	cur := old[n-1]
	*h = old[:n-1]
	return cur
}
