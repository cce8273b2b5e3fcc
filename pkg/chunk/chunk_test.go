package chunk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cometdb/comet/pkg/schema"
)

func testSchema() *schema.Schema {
	return schema.MustNew(
		schema.NewField(1, "id", schema.TypeInt64, false),
		schema.NewField(2, "name", schema.TypeString, true),
		schema.NewField(3, "score", schema.TypeFloat64, false),
	)
}

func TestAppendRowAndRead(t *testing.T) {
	c := New(testSchema())
	require.True(t, c.Empty())

	require.NoError(t, c.AppendRow(int64(1), "alice", 0.5))
	require.NoError(t, c.AppendRow(int64(2), "bob", 1.5))

	assert.Equal(t, 2, c.NumRows())
	assert.Equal(t, 3, c.NumColumns())
	assert.Equal(t, []interface{}{int64(2), "bob", 1.5}, c.Row(1))
}

func TestAppendRowShapeErrors(t *testing.T) {
	c := New(testSchema())

	err := c.AppendRow(int64(1), "alice")
	assert.Error(t, err)

	err = c.AppendRow("not-an-int", "alice", 0.5)
	assert.Error(t, err)
}

func TestAppendRowFrom(t *testing.T) {
	src := New(testSchema())
	require.NoError(t, src.AppendRow(int64(7), "carol", 2.25))

	dst := New(testSchema())
	require.NoError(t, dst.AppendRowFrom(src, 0))

	assert.Equal(t, 1, dst.NumRows())
	assert.Equal(t, src.Row(0), dst.Row(0))
}

func TestResetKeepsShape(t *testing.T) {
	c := New(testSchema())
	require.NoError(t, c.AppendRow(int64(1), "a", 1.0))

	c.Reset()
	assert.True(t, c.Empty())
	assert.Equal(t, 3, c.NumColumns())
	require.NoError(t, c.AppendRow(int64(2), "b", 2.0))
}

func TestMatches(t *testing.T) {
	s := testSchema()
	c := New(s)
	assert.True(t, c.Matches(s))

	other := schema.MustNew(
		schema.NewField(1, "id", schema.TypeInt64, false),
		schema.NewField(2, "name", schema.TypeInt32, false),
		schema.NewField(3, "score", schema.TypeFloat64, false),
	)
	assert.False(t, c.Matches(other))

	narrow := schema.MustNew(schema.NewField(1, "id", schema.TypeInt64, false))
	assert.False(t, c.Matches(narrow))
}

func TestColumnByID(t *testing.T) {
	c := New(testSchema())
	col, ok := c.ColumnByID(2)
	require.True(t, ok)
	assert.Equal(t, schema.TypeString, col.Type())

	_, ok = c.ColumnByID(99)
	assert.False(t, ok)
}

func TestCompareRows(t *testing.T) {
	s := schema.MustNew(
		schema.NewField(1, "k1", schema.TypeInt64, false),
		schema.NewField(2, "k2", schema.TypeString, false),
		schema.NewField(3, "v", schema.TypeFloat64, false),
	)
	a := New(s)
	require.NoError(t, a.AppendRow(int64(1), "a", 1.0))
	require.NoError(t, a.AppendRow(int64(1), "b", 2.0))
	require.NoError(t, a.AppendRow(int64(2), "a", 3.0))

	// Equal keys, different value column: compare only the key prefix.
	b := New(s)
	require.NoError(t, b.AppendRow(int64(1), "b", 99.0))

	assert.Equal(t, -1, CompareRows(a, 0, b, 0, 2))
	assert.Equal(t, 0, CompareRows(a, 1, b, 0, 2))
	assert.Equal(t, 1, CompareRows(a, 2, b, 0, 2))
}

func TestTimestampAndBinaryColumns(t *testing.T) {
	s := schema.MustNew(
		schema.NewField(1, "ts", schema.TypeTimestamp, false),
		schema.NewField(2, "raw", schema.TypeBinary, false),
	)
	c := New(s)

	now := time.Now()
	require.NoError(t, c.AppendRow(now, []byte{0x1, 0x2}))
	assert.Equal(t, now, c.Column(0).Value(0))
	assert.Equal(t, []byte{0x1, 0x2}, c.Column(1).Value(0))
}
