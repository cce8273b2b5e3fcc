package chunk

import (
	"bytes"
	"time"

	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/schema"
)

// Chunk is a batch of columnar rows shaped by a schema. The consumer
// allocates it against the iterator's output schema, passes it empty to
// Fetch, and resets it between calls. Iterators append rows; they never
// reallocate or reshape the chunk.
type Chunk struct {
	sch  *schema.Schema
	cols []Column
}

// New allocates an empty chunk shaped by the given schema.
func New(sch *schema.Schema) *Chunk {
	cols := make([]Column, sch.NumFields())
	for i := 0; i < sch.NumFields(); i++ {
		cols[i] = NewColumn(sch.Field(i).Type())
	}
	return &Chunk{sch: sch, cols: cols}
}

// Schema returns the schema the chunk was allocated against.
func (c *Chunk) Schema() *schema.Schema { return c.sch }

// NumColumns returns the number of columns.
func (c *Chunk) NumColumns() int { return len(c.cols) }

// NumRows returns the number of rows.
func (c *Chunk) NumRows() int {
	if len(c.cols) == 0 {
		return 0
	}
	return c.cols[0].Len()
}

// Empty reports whether the chunk holds no rows.
func (c *Chunk) Empty() bool { return c.NumRows() == 0 }

// Column returns the column at position i.
func (c *Chunk) Column(i int) Column { return c.cols[i] }

// ColumnByID returns the column for the field with the given id.
func (c *Chunk) ColumnByID(id schema.ColumnID) (Column, bool) {
	i, ok := c.sch.IndexOf(id)
	if !ok {
		return nil, false
	}
	return c.cols[i], true
}

// AppendRow appends one row. Values must match the schema's field types in
// order.
func (c *Chunk) AppendRow(values ...interface{}) error {
	if len(values) != len(c.cols) {
		return errors.Newf(errors.ErrorTypeData, "row has %d values, chunk has %d columns", len(values), len(c.cols))
	}
	for i, v := range values {
		if err := c.cols[i].Append(v); err != nil {
			return err
		}
	}
	return nil
}

// AppendRowFrom appends row i of src, which must have the same column shape.
func (c *Chunk) AppendRowFrom(src *Chunk, i int) error {
	if len(src.cols) != len(c.cols) {
		return errors.Newf(errors.ErrorTypeData, "source chunk has %d columns, want %d", len(src.cols), len(c.cols))
	}
	for j := range c.cols {
		if err := c.cols[j].AppendFrom(src.cols[j], i); err != nil {
			return err
		}
	}
	return nil
}

// Row materializes row i as a value slice. Diagnostic path; the hot path
// works column-at-a-time.
func (c *Chunk) Row(i int) []interface{} {
	row := make([]interface{}, len(c.cols))
	for j, col := range c.cols {
		row[j] = col.Value(i)
	}
	return row
}

// Reset truncates all columns to zero rows, keeping capacity.
func (c *Chunk) Reset() {
	for _, col := range c.cols {
		col.Reset()
	}
}

// Matches reports whether the chunk structurally matches s: same column
// count, and each column's type equals the corresponding field's type.
func (c *Chunk) Matches(s *schema.Schema) bool {
	if len(c.cols) != s.NumFields() {
		return false
	}
	for i, col := range c.cols {
		if col.Type() != s.Field(i).Type() {
			return false
		}
	}
	return true
}

// CompareRows compares the first numKeys columns of row ai in a against row
// bi in b. Both chunks must share the same key column types. Returns -1, 0,
// or 1.
func CompareRows(a *Chunk, ai int, b *Chunk, bi int, numKeys int) int {
	for k := 0; k < numKeys; k++ {
		if cmp := CompareValues(a.cols[k].Type(), a.cols[k].Value(ai), b.cols[k].Value(bi)); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// CompareValues compares two values of the given logical type, returning -1,
// 0, or 1. Both values must be of the type's Go representation.
func CompareValues(typ schema.LogicalType, a, b interface{}) int {
	switch typ {
	case schema.TypeBool:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case schema.TypeInt32:
		return compareOrdered(a.(int32), b.(int32))
	case schema.TypeInt64:
		return compareOrdered(a.(int64), b.(int64))
	case schema.TypeFloat64:
		return compareOrdered(a.(float64), b.(float64))
	case schema.TypeString:
		return compareOrdered(a.(string), b.(string))
	case schema.TypeTimestamp:
		av, bv := a.(time.Time), b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		default:
			return 0
		}
	case schema.TypeBinary:
		return bytes.Compare(a.([]byte), b.([]byte))
	default:
		return 0
	}
}

func compareOrdered[T int32 | int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
