// Package arrow converts chunks to and from Apache Arrow records so query
// results can cross process boundaries in a standard columnar format.
package arrow

import (
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/schema"
)

// columnIDKey is the field metadata key carrying the engine column id, so a
// round trip through Arrow preserves identity and not just name and type.
const columnIDKey = "column_id"

// ToArrowSchema converts an engine schema to an Arrow schema. Column ids ride
// in per-field metadata.
func ToArrowSchema(s *schema.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, s.NumFields())
	for i := 0; i < s.NumFields(); i++ {
		f := s.Field(i)
		dt, err := toArrowType(f.Type())
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeData, "convert field %s", f.Name())
		}
		fields = append(fields, arrow.Field{
			Name:     f.Name(),
			Type:     dt,
			Metadata: arrow.NewMetadata([]string{columnIDKey}, []string{strconv.FormatUint(uint64(f.ID()), 10)}),
		})
	}
	return arrow.NewSchema(fields, nil), nil
}

// FromArrowSchema converts an Arrow schema produced by ToArrowSchema back to
// an engine schema.
func FromArrowSchema(as *arrow.Schema) (*schema.Schema, error) {
	fields := make([]schema.Field, 0, as.NumFields())
	for _, af := range as.Fields() {
		idx := af.Metadata.FindKey(columnIDKey)
		if idx < 0 {
			return nil, errors.Newf(errors.ErrorTypeData, "arrow field %s has no column id metadata", af.Name)
		}
		id, err := strconv.ParseUint(af.Metadata.Values()[idx], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeData, "parse column id of arrow field %s", af.Name)
		}
		typ, err := fromArrowType(af.Type)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeData, "convert arrow field %s", af.Name)
		}
		fields = append(fields, schema.NewField(schema.ColumnID(id), af.Name, typ, false))
	}
	return schema.New(fields...)
}

func toArrowType(t schema.LogicalType) (arrow.DataType, error) {
	switch t {
	case schema.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case schema.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.TypeString:
		return arrow.BinaryTypes.String, nil
	case schema.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_ns, nil
	case schema.TypeBinary:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "no arrow mapping for type %s", t)
	}
}

func fromArrowType(dt arrow.DataType) (schema.LogicalType, error) {
	switch dt.ID() {
	case arrow.BOOL:
		return schema.TypeBool, nil
	case arrow.INT32:
		return schema.TypeInt32, nil
	case arrow.INT64:
		return schema.TypeInt64, nil
	case arrow.FLOAT64:
		return schema.TypeFloat64, nil
	case arrow.STRING:
		return schema.TypeString, nil
	case arrow.TIMESTAMP:
		return schema.TypeTimestamp, nil
	case arrow.BINARY:
		return schema.TypeBinary, nil
	default:
		return schema.TypeUnknown, errors.Newf(errors.ErrorTypeData, "no engine mapping for arrow type %s", dt)
	}
}

// ToRecord converts a chunk to an Arrow record. The caller releases the
// record.
func ToRecord(c *chunk.Chunk, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	as, err := ToArrowSchema(c.Schema())
	if err != nil {
		return nil, err
	}

	rb := array.NewRecordBuilder(mem, as)
	defer rb.Release()

	for i := 0; i < c.NumColumns(); i++ {
		col := c.Column(i)
		b := rb.Field(i)
		for r := 0; r < col.Len(); r++ {
			if err := appendValue(b, col.Value(r)); err != nil {
				return nil, errors.Wrapf(err, errors.ErrorTypeData, "append row %d of column %s", r, c.Schema().Field(i).Name())
			}
		}
	}
	return rb.NewRecord(), nil
}

func appendValue(b array.Builder, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch bld := b.(type) {
	case *array.BooleanBuilder:
		bld.Append(v.(bool))
	case *array.Int32Builder:
		bld.Append(v.(int32))
	case *array.Int64Builder:
		bld.Append(v.(int64))
	case *array.Float64Builder:
		bld.Append(v.(float64))
	case *array.StringBuilder:
		bld.Append(v.(string))
	case *array.TimestampBuilder:
		bld.Append(arrow.Timestamp(v.(time.Time).UnixNano()))
	case *array.BinaryBuilder:
		bld.Append(v.([]byte))
	default:
		return errors.Newf(errors.ErrorTypeData, "unsupported arrow builder %T", b)
	}
	return nil
}

// FromRecord converts an Arrow record back to a chunk shaped by s. The record
// must have been produced from the same schema.
func FromRecord(rec arrow.Record, s *schema.Schema) (*chunk.Chunk, error) {
	if int(rec.NumCols()) != s.NumFields() {
		return nil, errors.Newf(errors.ErrorTypeData, "record has %d columns, schema has %d fields", rec.NumCols(), s.NumFields())
	}
	c := chunk.New(s)
	for i := 0; i < int(rec.NumCols()); i++ {
		col := c.Column(i)
		if err := appendArray(col, rec.Column(i)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeData, "convert arrow column %s", s.Field(i).Name())
		}
	}
	return c, nil
}

func appendArray(col chunk.Column, a arrow.Array) error {
	for r := 0; r < a.Len(); r++ {
		if a.IsNull(r) {
			return errors.New(errors.ErrorTypeData, "null values are not representable in a chunk")
		}
		var v interface{}
		switch arr := a.(type) {
		case *array.Boolean:
			v = arr.Value(r)
		case *array.Int32:
			v = arr.Value(r)
		case *array.Int64:
			v = arr.Value(r)
		case *array.Float64:
			v = arr.Value(r)
		case *array.String:
			v = arr.Value(r)
		case *array.Timestamp:
			v = time.Unix(0, int64(arr.Value(r))).UTC()
		case *array.Binary:
			v = arr.Value(r)
		default:
			return errors.Newf(errors.ErrorTypeData, "unsupported arrow array %T", a)
		}
		if err := col.Append(v); err != nil {
			return err
		}
	}
	return nil
}
