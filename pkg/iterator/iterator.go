// Package iterator defines the vectorized chunk-iteration contract that
// underlies table scans, merges, filters, and aggregations.
//
// Iterators are pull-based: a consumer repeatedly calls Fetch with an empty,
// caller-owned chunk, and the iterator appends at least one row or reports
// ErrEndOfStream. Optional per-call capabilities (row ordinals, row-source
// masks) are negotiated explicitly: an iterator that does not implement one
// rejects the request with a capability error instead of degrading silently.
//
// Every iterator owns three schema views. The base schema is fixed at
// construction. InitEncodedSchema derives the encoded schema by substituting
// dictionary-coded fields where the planner's global dictionary map covers a
// column. InitOutputSchema derives the output schema by pruning unused
// columns. Both initializers run at most once, before iteration begins.
//
// A single iterator instance assumes serialized access: Fetch and Close must
// not race. Pipelines are built by nesting iterators; each Fetch propagates
// synchronously down the chain, so a slow consumer throttles the whole
// pipeline structurally. Cancellation is simply ceasing to fetch and calling
// Close, which is safe before the first fetch.
package iterator

import (
	stderrors "errors"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/schema"
)

// DefaultChunkSize is the soft row-count target for one fetch.
const DefaultChunkSize = 4096

// ErrEndOfStream signals normal termination of an iterator. It is returned
// together with an empty chunk and is not an error condition.
var ErrEndOfStream = stderrors.New("end of stream")

// Iterator is the pull-iterator contract all execution operators implement.
//
// Fetch requires chunk to be non-nil and empty, and its columns to match
// OutputSchema in count, order, and type. On nil return the chunk holds at
// least one row; on ErrEndOfStream it stays empty; on any other error its
// content is unspecified.
type Iterator interface {
	// Fetch appends the next batch of rows to c. Every concrete iterator
	// implements this baseline form.
	Fetch(c *chunk.Chunk) error

	// FetchWithRowIDs is like Fetch but also appends each row's source
	// ordinal to rowIDs. Iterators that cannot produce ordinals reject the
	// call with a capability error; callers must not assume availability.
	FetchWithRowIDs(c *chunk.Chunk, rowIDs *[]uint32) error

	// FetchWithMasks is like Fetch but also appends one RowSourceMask per
	// row to masks, in row order. A nil masks behaves exactly like Fetch.
	// Non-merge-capable iterators reject a non-nil masks with a capability
	// error.
	FetchWithMasks(c *chunk.Chunk, masks *[]RowSourceMask) error

	// Close releases resources held by the iterator. Call it at most once;
	// it is safe even if no fetch ever returned a row. Fetching after Close
	// is a programming error.
	Close()

	// MergedRows returns the number of rows absorbed or superseded by merge
	// logic. Zero for non-merge iterators.
	MergedRows() uint64

	// Schema returns the immutable base schema.
	Schema() *schema.Schema

	// EncodedSchema returns the dictionary-encoded schema, or the base
	// schema when encoding was never initialized.
	EncodedSchema() *schema.Schema

	// OutputSchema returns the active schema of fetched chunks: the output
	// projection if initialized, else the encoded schema, else the base
	// schema.
	OutputSchema() *schema.Schema

	// InitEncodedSchema substitutes a dictionary-coded field for every base
	// field covered by dicts. Call at most once, before iteration; repeated
	// calls with differing dictionaries are a caller error and are not
	// defended against.
	InitEncodedSchema(dicts schema.GlobalDictMap) error

	// InitOutputSchema drops the listed column ids from the encoded schema,
	// preserving order. The projection must retain at least one field.
	// Idempotent: after the first call, subsequent calls are no-ops.
	InitOutputSchema(unused map[schema.ColumnID]struct{}) error

	// ChunkSize returns the soft row-count target for one fetch.
	ChunkSize() int
}

// schemaState tracks how far the schema lifecycle has progressed. It only
// moves forward: raw at construction, encoded after dictionary substitution,
// projected once the output pruning is frozen.
type schemaState uint8

const (
	stateRaw schemaState = iota
	stateEncoded
	stateProjected
)

// Base carries the schema views, chunk-size policy, and capability defaults
// shared by all iterators. Concrete iterators embed it by value and construct
// it with NewBase, passing themselves so the default mask path can fall back
// to their plain Fetch.
type Base struct {
	self      Iterator
	sch       *schema.Schema
	encoded   *schema.Schema
	output    *schema.Schema
	state     schemaState
	chunkSize int
	closed    bool
}

// NewBase creates a Base bound to self with the default chunk-size target.
func NewBase(self Iterator, sch *schema.Schema) Base {
	return NewBaseWithChunkSize(self, sch, DefaultChunkSize)
}

// NewBaseWithChunkSize creates a Base with an explicit chunk-size target.
func NewBaseWithChunkSize(self Iterator, sch *schema.Schema, chunkSize int) Base {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return Base{self: self, sch: sch, chunkSize: chunkSize}
}

// Schema returns the immutable base schema.
func (b *Base) Schema() *schema.Schema { return b.sch }

// EncodedSchema returns the encoded schema, falling back to the base schema
// when encoding was never initialized.
func (b *Base) EncodedSchema() *schema.Schema {
	if b.encoded.NumFields() == 0 {
		return b.sch
	}
	return b.encoded
}

// OutputSchema resolves the active schema: output projection if initialized,
// else encoded, else base.
func (b *Base) OutputSchema() *schema.Schema {
	if b.state == stateProjected {
		return b.output
	}
	return b.EncodedSchema()
}

// InitEncodedSchema derives the encoded schema. Field count and order are
// preserved; covered fields are lowered to their dictionary-coded form.
func (b *Base) InitEncodedSchema(dicts schema.GlobalDictMap) error {
	fields := make([]schema.Field, 0, b.sch.NumFields())
	for _, f := range b.sch.Fields() {
		if _, ok := dicts[f.ID()]; ok {
			fields = append(fields, f.ToDictCoded())
		} else {
			fields = append(fields, f)
		}
	}
	encoded, err := schema.New(fields...)
	if err != nil {
		return err
	}
	b.encoded = encoded
	if b.state == stateRaw {
		b.state = stateEncoded
	}
	return nil
}

// InitOutputSchema derives the output schema by dropping the listed ids from
// the encoded schema. A projection that would leave zero columns is a caller
// bug and panics. After the first call the projection is frozen and further
// calls succeed without effect.
func (b *Base) InitOutputSchema(unused map[schema.ColumnID]struct{}) error {
	if b.state == stateProjected {
		return nil
	}
	fields := make([]schema.Field, 0, b.EncodedSchema().NumFields())
	for _, f := range b.EncodedSchema().Fields() {
		if _, drop := unused[f.ID()]; !drop {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		panic("iterator: output projection retains no columns")
	}
	output, err := schema.New(fields...)
	if err != nil {
		return err
	}
	b.output = output
	b.state = stateProjected
	return nil
}

// ChunkSize returns the soft row-count target for one fetch.
func (b *Base) ChunkSize() int { return b.chunkSize }

// MergedRows returns zero; merge-type iterators override it.
func (b *Base) MergedRows() uint64 { return 0 }

// FetchWithRowIDs rejects the request; iterators that can produce row
// ordinals override it.
func (b *Base) FetchWithRowIDs(_ *chunk.Chunk, _ *[]uint32) error {
	return errors.NotSupported("fetch with row ids")
}

// FetchWithMasks falls back to the plain fetch when no mask buffer is
// supplied, and otherwise rejects the request; merge-capable iterators
// override it.
func (b *Base) FetchWithMasks(c *chunk.Chunk, masks *[]RowSourceMask) error {
	if masks == nil {
		return b.self.Fetch(c)
	}
	return errors.NotSupported("fetch with row source masks")
}

// markClosed records that Close ran. Concrete iterators call it from Close.
func (b *Base) markClosed() { b.closed = true }

// assertOpen panics when the iterator was already closed. Fetching a closed
// iterator is a programming error, not a recoverable condition.
func (b *Base) assertOpen() {
	if b.closed {
		panic("iterator: fetch after close")
	}
}

// checked validates the fetch postcondition in chunkcheck builds and returns
// err unchanged. It never alters production control flow.
func (b *Base) checked(c *chunk.Chunk, err error) error {
	checkChunk(c, b.OutputSchema(), err)
	return err
}
