// Package chunk implements the caller-owned columnar batch produced by one
// iteration call, together with its typed column vectors. A chunk is bound to
// a schema at allocation time: column count, order, and types mirror the
// schema's fields, and every column holds the same number of rows.
package chunk

import (
	"time"

	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/schema"
)

// Column is a typed vector of values. Implementations are not safe for
// concurrent use; a chunk and its columns belong to a single consumer.
type Column interface {
	// Type returns the logical type of the stored values.
	Type() schema.LogicalType

	// Len returns the number of rows.
	Len() int

	// Value returns the value at row i.
	Value(i int) interface{}

	// Append appends a value, which must match the column type.
	Append(v interface{}) error

	// AppendFrom appends row i of src, which must have the same type.
	AppendFrom(src Column, i int) error

	// Reset truncates the column to zero rows, keeping capacity.
	Reset()
}

// NewColumn allocates an empty column for the given logical type.
func NewColumn(typ schema.LogicalType) Column {
	switch typ {
	case schema.TypeBool:
		return &BoolColumn{}
	case schema.TypeInt32:
		return &Int32Column{}
	case schema.TypeInt64:
		return &Int64Column{}
	case schema.TypeFloat64:
		return &Float64Column{}
	case schema.TypeString:
		return &StringColumn{}
	case schema.TypeTimestamp:
		return &TimestampColumn{}
	case schema.TypeBinary:
		return &BinaryColumn{}
	default:
		return &StringColumn{}
	}
}

func typeMismatch(want schema.LogicalType, got interface{}) error {
	return errors.Newf(errors.ErrorTypeData, "column type %s cannot hold %T", want, got)
}

// BoolColumn stores bool values.
type BoolColumn struct {
	values []bool
}

func (c *BoolColumn) Type() schema.LogicalType { return schema.TypeBool }
func (c *BoolColumn) Len() int                 { return len(c.values) }
func (c *BoolColumn) Value(i int) interface{}  { return c.values[i] }
func (c *BoolColumn) Reset()                   { c.values = c.values[:0] }

func (c *BoolColumn) Append(v interface{}) error {
	b, ok := v.(bool)
	if !ok {
		return typeMismatch(schema.TypeBool, v)
	}
	c.values = append(c.values, b)
	return nil
}

func (c *BoolColumn) AppendFrom(src Column, i int) error {
	s, ok := src.(*BoolColumn)
	if !ok {
		return typeMismatch(schema.TypeBool, src)
	}
	c.values = append(c.values, s.values[i])
	return nil
}

// Int32Column stores int32 values. Dictionary-coded fields use it for their
// surrogate codes.
type Int32Column struct {
	values []int32
}

func (c *Int32Column) Type() schema.LogicalType { return schema.TypeInt32 }
func (c *Int32Column) Len() int                 { return len(c.values) }
func (c *Int32Column) Value(i int) interface{}  { return c.values[i] }
func (c *Int32Column) Reset()                   { c.values = c.values[:0] }

func (c *Int32Column) Append(v interface{}) error {
	switch n := v.(type) {
	case int32:
		c.values = append(c.values, n)
	case int:
		c.values = append(c.values, int32(n))
	default:
		return typeMismatch(schema.TypeInt32, v)
	}
	return nil
}

func (c *Int32Column) AppendFrom(src Column, i int) error {
	s, ok := src.(*Int32Column)
	if !ok {
		return typeMismatch(schema.TypeInt32, src)
	}
	c.values = append(c.values, s.values[i])
	return nil
}

// Int64Column stores int64 values.
type Int64Column struct {
	values []int64
}

func (c *Int64Column) Type() schema.LogicalType { return schema.TypeInt64 }
func (c *Int64Column) Len() int                 { return len(c.values) }
func (c *Int64Column) Value(i int) interface{}  { return c.values[i] }
func (c *Int64Column) Reset()                   { c.values = c.values[:0] }

func (c *Int64Column) Append(v interface{}) error {
	switch n := v.(type) {
	case int64:
		c.values = append(c.values, n)
	case int:
		c.values = append(c.values, int64(n))
	default:
		return typeMismatch(schema.TypeInt64, v)
	}
	return nil
}

func (c *Int64Column) AppendFrom(src Column, i int) error {
	s, ok := src.(*Int64Column)
	if !ok {
		return typeMismatch(schema.TypeInt64, src)
	}
	c.values = append(c.values, s.values[i])
	return nil
}

// Float64Column stores float64 values.
type Float64Column struct {
	values []float64
}

func (c *Float64Column) Type() schema.LogicalType { return schema.TypeFloat64 }
func (c *Float64Column) Len() int                 { return len(c.values) }
func (c *Float64Column) Value(i int) interface{}  { return c.values[i] }
func (c *Float64Column) Reset()                   { c.values = c.values[:0] }

func (c *Float64Column) Append(v interface{}) error {
	f, ok := v.(float64)
	if !ok {
		return typeMismatch(schema.TypeFloat64, v)
	}
	c.values = append(c.values, f)
	return nil
}

func (c *Float64Column) AppendFrom(src Column, i int) error {
	s, ok := src.(*Float64Column)
	if !ok {
		return typeMismatch(schema.TypeFloat64, src)
	}
	c.values = append(c.values, s.values[i])
	return nil
}

// StringColumn stores string values.
type StringColumn struct {
	values []string
}

func (c *StringColumn) Type() schema.LogicalType { return schema.TypeString }
func (c *StringColumn) Len() int                 { return len(c.values) }
func (c *StringColumn) Value(i int) interface{}  { return c.values[i] }
func (c *StringColumn) Reset()                   { c.values = c.values[:0] }

func (c *StringColumn) Append(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return typeMismatch(schema.TypeString, v)
	}
	c.values = append(c.values, s)
	return nil
}

func (c *StringColumn) AppendFrom(src Column, i int) error {
	s, ok := src.(*StringColumn)
	if !ok {
		return typeMismatch(schema.TypeString, src)
	}
	c.values = append(c.values, s.values[i])
	return nil
}

// TimestampColumn stores time.Time values.
type TimestampColumn struct {
	values []time.Time
}

func (c *TimestampColumn) Type() schema.LogicalType { return schema.TypeTimestamp }
func (c *TimestampColumn) Len() int                 { return len(c.values) }
func (c *TimestampColumn) Value(i int) interface{}  { return c.values[i] }
func (c *TimestampColumn) Reset()                   { c.values = c.values[:0] }

func (c *TimestampColumn) Append(v interface{}) error {
	t, ok := v.(time.Time)
	if !ok {
		return typeMismatch(schema.TypeTimestamp, v)
	}
	c.values = append(c.values, t)
	return nil
}

func (c *TimestampColumn) AppendFrom(src Column, i int) error {
	s, ok := src.(*TimestampColumn)
	if !ok {
		return typeMismatch(schema.TypeTimestamp, src)
	}
	c.values = append(c.values, s.values[i])
	return nil
}

// BinaryColumn stores raw byte slices. Values are referenced, not copied.
type BinaryColumn struct {
	values [][]byte
}

func (c *BinaryColumn) Type() schema.LogicalType { return schema.TypeBinary }
func (c *BinaryColumn) Len() int                 { return len(c.values) }
func (c *BinaryColumn) Value(i int) interface{}  { return c.values[i] }
func (c *BinaryColumn) Reset()                   { c.values = c.values[:0] }

func (c *BinaryColumn) Append(v interface{}) error {
	b, ok := v.([]byte)
	if !ok {
		return typeMismatch(schema.TypeBinary, v)
	}
	c.values = append(c.values, b)
	return nil
}

func (c *BinaryColumn) AppendFrom(src Column, i int) error {
	s, ok := src.(*BinaryColumn)
	if !ok {
		return typeMismatch(schema.TypeBinary, src)
	}
	c.values = append(c.values, s.values[i])
	return nil
}
