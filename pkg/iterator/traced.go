package iterator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/schema"
)

// TracedIterator wraps an iterator and emits one span per fetch, carrying
// the row count and error status as attributes. Results are forwarded
// bit-identical, like TimedIterator.
type TracedIterator struct {
	inner  Iterator
	ctx    context.Context
	tracer trace.Tracer
	name   string
}

var _ Iterator = (*TracedIterator)(nil)

// NewTracedIterator wraps inner with tracing. name labels the spans (e.g.
// "heap_merge"); ctx carries the parent span for the whole iteration.
func NewTracedIterator(ctx context.Context, inner Iterator, name string) *TracedIterator {
	return &TracedIterator{
		inner:  inner,
		ctx:    ctx,
		tracer: otel.Tracer("comet/iterator"),
		name:   name,
	}
}

// Fetch forwards to the inner iterator inside a span.
func (t *TracedIterator) Fetch(c *chunk.Chunk) error {
	_, span := t.tracer.Start(t.ctx, t.name+".fetch")
	err := t.inner.Fetch(c)
	t.finish(span, c, err)
	return err
}

// FetchWithRowIDs forwards to the inner iterator inside a span.
func (t *TracedIterator) FetchWithRowIDs(c *chunk.Chunk, rowIDs *[]uint32) error {
	_, span := t.tracer.Start(t.ctx, t.name+".fetch_row_ids")
	err := t.inner.FetchWithRowIDs(c, rowIDs)
	t.finish(span, c, err)
	return err
}

// FetchWithMasks forwards to the inner iterator inside a span.
func (t *TracedIterator) FetchWithMasks(c *chunk.Chunk, masks *[]RowSourceMask) error {
	_, span := t.tracer.Start(t.ctx, t.name+".fetch_masks")
	err := t.inner.FetchWithMasks(c, masks)
	t.finish(span, c, err)
	return err
}

func (t *TracedIterator) finish(span trace.Span, c *chunk.Chunk, err error) {
	span.SetAttributes(attribute.Int("rows", c.NumRows()))
	switch {
	case err == nil, err == ErrEndOfStream:
		// normal outcomes
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *TracedIterator) Close()                        { t.inner.Close() }
func (t *TracedIterator) MergedRows() uint64            { return t.inner.MergedRows() }
func (t *TracedIterator) Schema() *schema.Schema        { return t.inner.Schema() }
func (t *TracedIterator) EncodedSchema() *schema.Schema { return t.inner.EncodedSchema() }
func (t *TracedIterator) OutputSchema() *schema.Schema  { return t.inner.OutputSchema() }
func (t *TracedIterator) ChunkSize() int                { return t.inner.ChunkSize() }

func (t *TracedIterator) InitEncodedSchema(dicts schema.GlobalDictMap) error {
	return t.inner.InitEncodedSchema(dicts)
}

func (t *TracedIterator) InitOutputSchema(unused map[schema.ColumnID]struct{}) error {
	return t.inner.InitOutputSchema(unused)
}
