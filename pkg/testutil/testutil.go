// Package testutil provides shared helpers for tests: chunk builders, schema
// fixtures, and a deterministic data generator.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/schema"
)

// TestContext returns a context that is canceled when the test ends.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	return ctx
}

// KeyValueSchema returns a two-field schema commonly used by merge tests:
// an int64 key (id 1) and a string value (id 2).
func KeyValueSchema() *schema.Schema {
	return schema.MustNew(
		schema.NewField(1, "key", schema.TypeInt64, false),
		schema.NewField(2, "value", schema.TypeString, false),
	)
}

// MakeChunk builds a chunk shaped by sch from the given rows, failing the
// test on any shape mismatch.
func MakeChunk(t *testing.T, sch *schema.Schema, rows ...[]interface{}) *chunk.Chunk {
	t.Helper()
	c := chunk.New(sch)
	for _, row := range rows {
		require.NoError(t, c.AppendRow(row...))
	}
	return c
}

// SequentialRows generates n rows of (key, value) pairs with keys start,
// start+step, start+2*step and so on, for building pre-sorted merge inputs.
func SequentialRows(start, step int64, n int, value string) [][]interface{} {
	rows := make([][]interface{}, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []interface{}{start + int64(i)*step, value})
	}
	return rows
}
