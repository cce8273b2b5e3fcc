package iterator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cometdb/comet/pkg/schema"
)

func TestUnionIteratorConcatenates(t *testing.T) {
	sch := threeFieldSchema()
	a := NewSliceIterator(sch, makeChunk(t, sch,
		[]interface{}{int64(1), "a", 1.0},
		[]interface{}{int64(2), "b", 2.0},
	))
	b := NewSliceIterator(sch, makeChunk(t, sch)) // empty input in the middle
	c := NewSliceIterator(sch, makeChunk(t, sch,
		[]interface{}{int64(3), "c", 3.0},
	))

	it := NewUnionIterator(sch, a, b, c)
	defer it.Close()

	rows := drain(t, it)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(1), rows[0][0])
	assert.Equal(t, int64(2), rows[1][0])
	assert.Equal(t, int64(3), rows[2][0])
}

func TestUnionIteratorPropagatesProjection(t *testing.T) {
	sch := threeFieldSchema()
	child := NewSliceIterator(sch, makeChunk(t, sch,
		[]interface{}{int64(1), "a", 1.0},
	))
	it := NewUnionIterator(sch, child)
	defer it.Close()

	require.NoError(t, it.InitOutputSchema(map[schema.ColumnID]struct{}{3: {}}))

	// The child received the same projection, so its chunks fit the union's
	// output schema.
	assert.Equal(t, 2, child.OutputSchema().NumFields())

	rows := drain(t, it)
	require.Len(t, rows, 1)
	assert.Equal(t, []interface{}{int64(1), "a"}, rows[0])
}

func TestUnionIteratorNoInputs(t *testing.T) {
	sch := threeFieldSchema()
	it := NewUnionIterator(sch)
	defer it.Close()
	assert.Empty(t, drain(t, it))
}
