package iterator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/schema"
)

func TestSliceIteratorBatches(t *testing.T) {
	sch := threeFieldSchema()
	src := makeChunk(t, sch,
		[]interface{}{int64(1), "a", 1.0},
		[]interface{}{int64(2), "b", 2.0},
		[]interface{}{int64(3), "c", 3.0},
		[]interface{}{int64(4), "d", 4.0},
		[]interface{}{int64(5), "e", 5.0},
	)
	it := NewSliceIteratorWithChunkSize(sch, src, 2)
	defer it.Close()

	c := chunk.New(sch)
	require.NoError(t, it.Fetch(c))
	assert.Equal(t, 2, c.NumRows())

	c.Reset()
	require.NoError(t, it.Fetch(c))
	assert.Equal(t, 2, c.NumRows())

	c.Reset()
	require.NoError(t, it.Fetch(c))
	assert.Equal(t, 1, c.NumRows())
	assert.Equal(t, []interface{}{int64(5), "e", 5.0}, c.Row(0))

	c.Reset()
	assert.Equal(t, ErrEndOfStream, it.Fetch(c))
	assert.True(t, c.Empty())
}

func TestSliceIteratorRowIDs(t *testing.T) {
	sch := threeFieldSchema()
	src := makeChunk(t, sch,
		[]interface{}{int64(1), "a", 1.0},
		[]interface{}{int64(2), "b", 2.0},
		[]interface{}{int64(3), "c", 3.0},
	)
	it := NewSliceIteratorWithChunkSize(sch, src, 2)
	defer it.Close()

	var rowIDs []uint32
	c := chunk.New(sch)
	require.NoError(t, it.FetchWithRowIDs(c, &rowIDs))
	assert.Equal(t, []uint32{0, 1}, rowIDs)

	c.Reset()
	require.NoError(t, it.FetchWithRowIDs(c, &rowIDs))
	assert.Equal(t, []uint32{0, 1, 2}, rowIDs)
}

func TestSliceIteratorProjectedFetch(t *testing.T) {
	sch := threeFieldSchema()
	src := makeChunk(t, sch,
		[]interface{}{int64(1), "a", 1.5},
		[]interface{}{int64(2), "b", 2.5},
	)
	it := NewSliceIterator(sch, src)
	defer it.Close()

	require.NoError(t, it.InitOutputSchema(map[schema.ColumnID]struct{}{2: {}}))

	rows := drain(t, it)
	require.Len(t, rows, 2)
	assert.Equal(t, []interface{}{int64(1), 1.5}, rows[0])
	assert.Equal(t, []interface{}{int64(2), 2.5}, rows[1])
}

func TestSliceIteratorEmptySource(t *testing.T) {
	sch := threeFieldSchema()
	it := NewSliceIterator(sch, chunk.New(sch))
	defer it.Close()

	assert.Empty(t, drain(t, it))
}
