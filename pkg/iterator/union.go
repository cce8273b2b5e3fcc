package iterator

import (
	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/schema"
)

// UnionIterator concatenates homogeneous inputs: it drains each child in
// order and moves to the next on end of stream. Schema initializers are
// propagated to every child so the whole pipeline agrees on one projection.
type UnionIterator struct {
	Base

	inputs []Iterator
	cur    int
}

var _ Iterator = (*UnionIterator)(nil)

// NewUnionIterator creates a union over inputs, which must share sch.
func NewUnionIterator(sch *schema.Schema, inputs ...Iterator) *UnionIterator {
	it := &UnionIterator{inputs: inputs}
	it.Base = NewBase(it, sch)
	return it
}

// Fetch pulls from the current child, advancing on end of stream.
func (it *UnionIterator) Fetch(c *chunk.Chunk) error {
	it.assertOpen()
	for it.cur < len(it.inputs) {
		err := it.inputs[it.cur].Fetch(c)
		if err == ErrEndOfStream {
			it.cur++
			continue
		}
		return it.checked(c, err)
	}
	return it.checked(c, ErrEndOfStream)
}

// InitEncodedSchema applies the substitution locally and in every child.
func (it *UnionIterator) InitEncodedSchema(dicts schema.GlobalDictMap) error {
	if err := it.Base.InitEncodedSchema(dicts); err != nil {
		return err
	}
	for _, in := range it.inputs {
		if err := in.InitEncodedSchema(dicts); err != nil {
			return err
		}
	}
	return nil
}

// InitOutputSchema applies the projection locally and in every child.
func (it *UnionIterator) InitOutputSchema(unused map[schema.ColumnID]struct{}) error {
	if err := it.Base.InitOutputSchema(unused); err != nil {
		return err
	}
	for _, in := range it.inputs {
		if err := in.InitOutputSchema(unused); err != nil {
			return err
		}
	}
	return nil
}

// MergedRows sums the children's merge counts.
func (it *UnionIterator) MergedRows() uint64 {
	var total uint64
	for _, in := range it.inputs {
		total += in.MergedRows()
	}
	return total
}

// Close closes every child.
func (it *UnionIterator) Close() {
	for _, in := range it.inputs {
		in.Close()
	}
	it.inputs = nil
	it.markClosed()
}
