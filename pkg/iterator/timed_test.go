package iterator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/metrics"
)

// fetchAll collects every (rows, err) pair a fetch loop over it observes, so
// decorated and undecorated runs can be compared status for status.
func fetchAll(t *testing.T, it Iterator) (rows [][]interface{}, errs []error) {
	t.Helper()
	c := chunk.New(it.OutputSchema())
	for {
		err := it.Fetch(c)
		errs = append(errs, err)
		if err != nil {
			return rows, errs
		}
		for r := 0; r < c.NumRows(); r++ {
			rows = append(rows, c.Row(r))
		}
		c.Reset()
	}
}

func TestTimedIteratorTransparent(t *testing.T) {
	sch := threeFieldSchema()
	rows := [][]interface{}{
		{int64(1), "oslo", 1.5},
		{int64(2), "bergen", 2.5},
	}

	plain := NewSliceIterator(sch, makeChunk(t, sch, rows...))
	wantRows, wantErrs := fetchAll(t, plain)
	plain.Close()

	var counter metrics.DurationCounter
	timed := NewTimedIterator(NewSliceIterator(sch, makeChunk(t, sch, rows...)), &counter)
	defer timed.Close()

	assert.Equal(t, sch, timed.Schema())
	assert.Equal(t, DefaultChunkSize, timed.ChunkSize())

	gotRows, gotErrs := fetchAll(t, timed)
	assert.Equal(t, wantRows, gotRows)
	assert.Equal(t, wantErrs, gotErrs)
	assert.Greater(t, counter.Total(), time.Duration(0))
}

func TestTimedIteratorForwardsRowIDs(t *testing.T) {
	sch := threeFieldSchema()
	var counter metrics.DurationCounter
	timed := NewTimedIterator(
		NewSliceIterator(sch, makeChunk(t, sch, []interface{}{int64(7), "oslo", 0.5})),
		&counter,
	)
	defer timed.Close()

	var rowIDs []uint32
	c := chunk.New(sch)
	require.NoError(t, timed.FetchWithRowIDs(c, &rowIDs))
	assert.Equal(t, []uint32{0}, rowIDs)
}

func TestTimedIteratorForwardsCapabilityError(t *testing.T) {
	sch := threeFieldSchema()
	var counter metrics.DurationCounter
	timed := NewTimedIterator(
		NewUnionIterator(sch, NewSliceIterator(sch, chunk.New(sch))),
		&counter,
	)
	defer timed.Close()

	var rowIDs []uint32
	c := chunk.New(sch)
	err := timed.FetchWithRowIDs(c, &rowIDs)
	assert.True(t, errors.IsNotSupported(err))
}

func TestTracedIteratorTransparent(t *testing.T) {
	// The global tracer provider defaults to a noop, so spans cost nothing
	// and the decorator must still forward everything unchanged.
	sch := threeFieldSchema()
	rows := [][]interface{}{
		{int64(1), "oslo", 1.5},
		{int64(2), "bergen", 2.5},
	}

	plain := NewSliceIterator(sch, makeChunk(t, sch, rows...))
	wantRows, wantErrs := fetchAll(t, plain)
	plain.Close()

	traced := NewTracedIterator(context.Background(),
		NewSliceIterator(sch, makeChunk(t, sch, rows...)), "slice")
	defer traced.Close()

	gotRows, gotErrs := fetchAll(t, traced)
	assert.Equal(t, wantRows, gotRows)
	assert.Equal(t, wantErrs, gotErrs)
}

func TestObservedIteratorTransparent(t *testing.T) {
	sch := threeFieldSchema()
	obs := NewObservedIterator(
		NewSliceIterator(sch, makeChunk(t, sch, []interface{}{int64(1), "oslo", 1.5})),
		"slice",
	)
	defer obs.Close()

	got := drain(t, obs)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(0), obs.MergedRows())
}

func TestDecoratorsStack(t *testing.T) {
	sch := mergeSchema()
	var counter metrics.DurationCounter
	it := NewTracedIterator(context.Background(),
		NewObservedIterator(
			NewTimedIterator(
				NewHeapMergeIterator(sch, MergeOptions{NumKeyColumns: 1, Dedup: true},
					sortedInput(t, sch, []interface{}{int64(1), "old"}),
					sortedInput(t, sch, []interface{}{int64(1), "new"}),
				),
				&counter,
			),
			"merge",
		),
		"merge",
	)
	defer it.Close()

	rows := drain(t, it)
	require.Len(t, rows, 1)
	assert.Equal(t, []interface{}{int64(1), "new"}, rows[0])
	assert.Equal(t, uint64(1), it.MergedRows())
	assert.Greater(t, counter.Total(), time.Duration(0))
}
