package iterator

import (
	"time"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/metrics"
	"github.com/cometdb/comet/pkg/schema"
)

// TimedIterator wraps an iterator and adds the wall time of every fetch
// variant to an external DurationCounter. Returned status, chunk contents,
// row ids, masks, schema views, and merge counts are forwarded untouched.
// Cross-cutting concerns layer on as wrappers like this one; leaf iterators
// stay uninstrumented.
type TimedIterator struct {
	inner   Iterator
	counter *metrics.DurationCounter
}

var _ Iterator = (*TimedIterator)(nil)

// NewTimedIterator wraps inner with timing instrumentation. The counter is
// owned by the caller and only ever added to.
func NewTimedIterator(inner Iterator, counter *metrics.DurationCounter) *TimedIterator {
	return &TimedIterator{inner: inner, counter: counter}
}

// Fetch forwards to the inner iterator, accumulating elapsed wall time.
func (t *TimedIterator) Fetch(c *chunk.Chunk) error {
	start := time.Now()
	err := t.inner.Fetch(c)
	t.counter.Add(time.Since(start))
	return err
}

// FetchWithRowIDs forwards to the inner iterator, accumulating elapsed wall
// time.
func (t *TimedIterator) FetchWithRowIDs(c *chunk.Chunk, rowIDs *[]uint32) error {
	start := time.Now()
	err := t.inner.FetchWithRowIDs(c, rowIDs)
	t.counter.Add(time.Since(start))
	return err
}

// FetchWithMasks forwards to the inner iterator, accumulating elapsed wall
// time.
func (t *TimedIterator) FetchWithMasks(c *chunk.Chunk, masks *[]RowSourceMask) error {
	start := time.Now()
	err := t.inner.FetchWithMasks(c, masks)
	t.counter.Add(time.Since(start))
	return err
}

func (t *TimedIterator) Close()                        { t.inner.Close() }
func (t *TimedIterator) MergedRows() uint64            { return t.inner.MergedRows() }
func (t *TimedIterator) Schema() *schema.Schema        { return t.inner.Schema() }
func (t *TimedIterator) EncodedSchema() *schema.Schema { return t.inner.EncodedSchema() }
func (t *TimedIterator) OutputSchema() *schema.Schema  { return t.inner.OutputSchema() }
func (t *TimedIterator) ChunkSize() int                { return t.inner.ChunkSize() }

func (t *TimedIterator) InitEncodedSchema(dicts schema.GlobalDictMap) error {
	return t.inner.InitEncodedSchema(dicts)
}

func (t *TimedIterator) InitOutputSchema(unused map[schema.ColumnID]struct{}) error {
	return t.inner.InitOutputSchema(unused)
}
