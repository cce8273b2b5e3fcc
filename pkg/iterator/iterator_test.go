package iterator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/schema"
)

func threeFieldSchema() *schema.Schema {
	return schema.MustNew(
		schema.NewField(1, "id", schema.TypeInt64, false),
		schema.NewField(2, "city", schema.TypeString, true),
		schema.NewField(3, "amount", schema.TypeFloat64, false),
	)
}

// makeChunk builds a chunk shaped by sch holding the given rows.
func makeChunk(t *testing.T, sch *schema.Schema, rows ...[]interface{}) *chunk.Chunk {
	t.Helper()
	c := chunk.New(sch)
	for _, row := range rows {
		require.NoError(t, c.AppendRow(row...))
	}
	return c
}

// drain pulls it to exhaustion and returns all rows.
func drain(t *testing.T, it Iterator) [][]interface{} {
	t.Helper()
	var rows [][]interface{}
	c := chunk.New(it.OutputSchema())
	for {
		err := it.Fetch(c)
		if err == ErrEndOfStream {
			assert.True(t, c.Empty(), "end of stream must come with an empty chunk")
			return rows
		}
		require.NoError(t, err)
		require.Greater(t, c.NumRows(), 0, "successful fetch must return rows")
		require.True(t, c.Matches(it.OutputSchema()), "chunk must match the output schema")
		for r := 0; r < c.NumRows(); r++ {
			rows = append(rows, c.Row(r))
		}
		c.Reset()
	}
}

func TestEncodedSchemaEmptyDictMap(t *testing.T) {
	// Scenario: base schema with 3 fields, empty dictionary map.
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, chunk.New(sch))
	defer it.Close()

	require.NoError(t, it.InitEncodedSchema(schema.GlobalDictMap{}))

	encoded := it.EncodedSchema()
	require.Equal(t, sch.NumFields(), encoded.NumFields())
	for i := 0; i < sch.NumFields(); i++ {
		assert.Equal(t, sch.Field(i), encoded.Field(i))
	}
}

func TestEncodedSchemaSubstitutesCoveredFields(t *testing.T) {
	// Scenario: dictionary map covering field id 2 of a 3-field schema.
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, chunk.New(sch))
	defer it.Close()

	dicts := schema.GlobalDictMap{2: {Version: 1, Codes: map[string]int32{"nyc": 0}}}
	require.NoError(t, it.InitEncodedSchema(dicts))

	encoded := it.EncodedSchema()
	require.Equal(t, 3, encoded.NumFields())
	assert.Equal(t, sch.Field(0), encoded.Field(0))
	assert.Equal(t, sch.Field(2), encoded.Field(2))

	coded := encoded.Field(1)
	assert.Equal(t, schema.ColumnID(2), coded.ID())
	assert.Equal(t, schema.TypeInt32, coded.Type())
	assert.True(t, coded.DictCoded())
}

func TestOutputSchemaProjection(t *testing.T) {
	// Scenario: drop field id 1 from a 3-field encoded schema.
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, chunk.New(sch))
	defer it.Close()

	require.NoError(t, it.InitOutputSchema(map[schema.ColumnID]struct{}{1: {}}))

	out := it.OutputSchema()
	require.Equal(t, 2, out.NumFields())
	assert.Equal(t, schema.ColumnID(2), out.Field(0).ID())
	assert.Equal(t, schema.ColumnID(3), out.Field(1).ID())
}

func TestInitOutputSchemaIdempotent(t *testing.T) {
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, chunk.New(sch))
	defer it.Close()

	require.NoError(t, it.InitOutputSchema(map[schema.ColumnID]struct{}{1: {}}))
	first := it.OutputSchema()

	// A second call with a different argument changes nothing.
	require.NoError(t, it.InitOutputSchema(map[schema.ColumnID]struct{}{3: {}}))
	second := it.OutputSchema()

	require.Equal(t, first.NumFields(), second.NumFields())
	for i := 0; i < first.NumFields(); i++ {
		assert.Equal(t, first.Field(i), second.Field(i))
	}
}

func TestOutputSchemaFallbackChain(t *testing.T) {
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, chunk.New(sch))
	defer it.Close()

	// Nothing initialized: output falls back through encoded to base.
	assert.Equal(t, sch, it.OutputSchema())
	assert.Equal(t, sch, it.EncodedSchema())

	// Encoded initialized: output resolves to the encoded schema.
	dicts := schema.GlobalDictMap{2: {Codes: map[string]int32{"x": 0}}}
	require.NoError(t, it.InitEncodedSchema(dicts))
	assert.Equal(t, it.EncodedSchema(), it.OutputSchema())
	assert.NotEqual(t, sch, it.OutputSchema())
}

func TestZeroColumnProjectionPanics(t *testing.T) {
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, chunk.New(sch))
	defer it.Close()

	assert.Panics(t, func() {
		_ = it.InitOutputSchema(map[schema.ColumnID]struct{}{1: {}, 2: {}, 3: {}})
	})
}

func TestRowIDFetchDefaultNotSupported(t *testing.T) {
	// UnionIterator inherits the Base default for row ids.
	sch := threeFieldSchema()
	inner := NewSliceIterator(sch, makeChunk(t, sch, []interface{}{int64(1), "a", 1.0}))
	it := NewUnionIterator(sch, inner)
	defer it.Close()

	var rowIDs []uint32
	err := it.FetchWithRowIDs(chunk.New(sch), &rowIDs)
	assert.True(t, errors.IsNotSupported(err))
}

func TestMaskedFetchDefaultBehavior(t *testing.T) {
	sch := threeFieldSchema()
	src := makeChunk(t, sch, []interface{}{int64(1), "a", 1.0})
	it := NewSliceIterator(sch, src)
	defer it.Close()

	// Nil mask buffer degrades to the plain form.
	c := chunk.New(sch)
	require.NoError(t, it.FetchWithMasks(c, nil))
	assert.Equal(t, 1, c.NumRows())

	// A supplied buffer on a non-merge-capable iterator is rejected.
	var masks []RowSourceMask
	err := it.FetchWithMasks(chunk.New(sch), &masks)
	assert.True(t, errors.IsNotSupported(err))
	assert.Empty(t, masks)
}

func TestFetchAfterClosePanics(t *testing.T) {
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, makeChunk(t, sch, []interface{}{int64(1), "a", 1.0}))
	it.Close()

	assert.Panics(t, func() {
		_ = it.Fetch(chunk.New(sch))
	})
}

func TestCloseBeforeFirstFetch(t *testing.T) {
	sch := threeFieldSchema()
	it := NewUnionIterator(sch, NewSliceIterator(sch, chunk.New(sch)))
	assert.NotPanics(t, it.Close)
}

func TestChunkSizeDefaultAndOverride(t *testing.T) {
	sch := threeFieldSchema()

	it := NewSliceIterator(sch, chunk.New(sch))
	assert.Equal(t, DefaultChunkSize, it.ChunkSize())
	it.Close()

	small := NewSliceIteratorWithChunkSize(sch, chunk.New(sch), 2)
	assert.Equal(t, 2, small.ChunkSize())
	small.Close()
}
