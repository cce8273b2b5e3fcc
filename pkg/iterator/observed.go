package iterator

import (
	"time"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/metrics"
	"github.com/cometdb/comet/pkg/schema"
)

// ObservedIterator wraps an iterator and records Prometheus metrics (chunk
// and row counters, fetch latency) for every successful fetch, labeled by
// iterator kind. Results are forwarded bit-identical.
type ObservedIterator struct {
	inner      Iterator
	kind       string
	lastMerged uint64
}

var _ Iterator = (*ObservedIterator)(nil)

// NewObservedIterator wraps inner, labeling its metrics with kind.
func NewObservedIterator(inner Iterator, kind string) *ObservedIterator {
	return &ObservedIterator{inner: inner, kind: kind}
}

// Fetch forwards to the inner iterator and records the outcome.
func (o *ObservedIterator) Fetch(c *chunk.Chunk) error {
	start := time.Now()
	err := o.inner.Fetch(c)
	o.record(c, err, time.Since(start))
	return err
}

// FetchWithRowIDs forwards to the inner iterator and records the outcome.
func (o *ObservedIterator) FetchWithRowIDs(c *chunk.Chunk, rowIDs *[]uint32) error {
	start := time.Now()
	err := o.inner.FetchWithRowIDs(c, rowIDs)
	o.record(c, err, time.Since(start))
	return err
}

// FetchWithMasks forwards to the inner iterator and records the outcome.
func (o *ObservedIterator) FetchWithMasks(c *chunk.Chunk, masks *[]RowSourceMask) error {
	start := time.Now()
	err := o.inner.FetchWithMasks(c, masks)
	o.record(c, err, time.Since(start))
	return err
}

func (o *ObservedIterator) record(c *chunk.Chunk, err error, elapsed time.Duration) {
	if err != nil {
		return
	}
	metrics.ObserveFetch(o.kind, c.NumRows(), elapsed)
	if merged := o.inner.MergedRows(); merged > o.lastMerged {
		// MergedRows is a running total; the counter needs the delta.
		metrics.MergedRows.WithLabelValues(o.kind).Add(float64(merged - o.lastMerged))
		o.lastMerged = merged
	}
}

func (o *ObservedIterator) Close()                        { o.inner.Close() }
func (o *ObservedIterator) MergedRows() uint64            { return o.inner.MergedRows() }
func (o *ObservedIterator) Schema() *schema.Schema        { return o.inner.Schema() }
func (o *ObservedIterator) EncodedSchema() *schema.Schema { return o.inner.EncodedSchema() }
func (o *ObservedIterator) OutputSchema() *schema.Schema  { return o.inner.OutputSchema() }
func (o *ObservedIterator) ChunkSize() int                { return o.inner.ChunkSize() }

func (o *ObservedIterator) InitEncodedSchema(dicts schema.GlobalDictMap) error {
	return o.inner.InitEncodedSchema(dicts)
}

func (o *ObservedIterator) InitOutputSchema(unused map[schema.ColumnID]struct{}) error {
	return o.inner.InitOutputSchema(unused)
}
