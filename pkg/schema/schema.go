// Package schema defines the immutable column metadata consumed by chunk
// iterators: ordered fields with stable integer ids, logical types, and the
// global dictionary map used to lower string columns to surrogate codes.
//
// Three schema views exist per iterator. The base schema is bound at
// construction and never mutates. The encoded schema substitutes a
// dictionary-coded representation for every field covered by the planner's
// global dictionary map. The output schema prunes columns the plan no longer
// needs. All three are represented by the same Schema type.
package schema

import (
	"github.com/cometdb/comet/pkg/errors"
)

// ColumnID is the stable identifier of a column. It survives projection and
// encoding: a field keeps its id across all three schema views.
type ColumnID uint32

// LogicalType is the logical value type of a column.
type LogicalType uint8

const (
	TypeUnknown LogicalType = iota
	TypeBool
	TypeInt32
	TypeInt64
	TypeFloat64
	TypeString
	TypeTimestamp
	TypeBinary
)

// String returns the lowercase name of the type.
func (t LogicalType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeTimestamp:
		return "timestamp"
	case TypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Field is immutable column metadata. Copy it freely; it has no reference
// semantics beyond the interned name string.
type Field struct {
	id           ColumnID
	name         string
	typ          LogicalType
	dictEligible bool
	dictCoded    bool
}

// NewField creates a field. dictEligible marks columns the planner may cover
// with a global dictionary.
func NewField(id ColumnID, name string, typ LogicalType, dictEligible bool) Field {
	return Field{id: id, name: name, typ: typ, dictEligible: dictEligible}
}

// ID returns the stable column id.
func (f Field) ID() ColumnID { return f.id }

// Name returns the column name.
func (f Field) Name() string { return f.name }

// Type returns the logical type. For a dict-coded field this is the surrogate
// type (TypeInt32), not the original value type.
func (f Field) Type() LogicalType { return f.typ }

// DictEligible reports whether a global dictionary may cover this column.
func (f Field) DictEligible() bool { return f.dictEligible }

// DictCoded reports whether the field is the lowered surrogate representation.
func (f Field) DictCoded() bool { return f.dictCoded }

// ToDictCoded returns the lowered representation of the field: same id and
// name, values replaced by fixed-width int32 dictionary codes.
func (f Field) ToDictCoded() Field {
	coded := f
	coded.typ = TypeInt32
	coded.dictCoded = true
	return coded
}

// Schema is an ordered sequence of fields, unique by id, immutable after
// construction. The zero value is the empty schema.
type Schema struct {
	fields []Field
	byID   map[ColumnID]int
}

// New creates a schema from the given fields. Field ids must be unique.
func New(fields ...Field) (*Schema, error) {
	byID := make(map[ColumnID]int, len(fields))
	for i, f := range fields {
		if _, dup := byID[f.id]; dup {
			return nil, errors.Newf(errors.ErrorTypeValidation, "duplicate column id %d in schema", f.id)
		}
		byID[f.id] = i
	}
	return &Schema{fields: append([]Field(nil), fields...), byID: byID}, nil
}

// MustNew is like New but panics on duplicate ids. Intended for tests and
// statically known schemas.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// NumFields returns the number of fields.
func (s *Schema) NumFields() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Field returns the field at position i.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// FieldByID returns the field with the given id.
func (s *Schema) FieldByID(id ColumnID) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// IndexOf returns the position of the field with the given id.
func (s *Schema) IndexOf(id ColumnID) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.byID[id]
	return i, ok
}
