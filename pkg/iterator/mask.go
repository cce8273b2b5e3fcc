package iterator

// RowSourceMask tags one output row of a multi-source merge with the ordinal
// of the input stream that produced it and a skip flag marking rows
// superseded by a newer source. Masks are produced in lockstep with chunk
// rows: one mask per row, in row order.
//
// The tag packs into 16 bits: the low 15 bits hold the source ordinal, the
// high bit the skip flag.
type RowSourceMask struct {
	data uint16
}

// MaxSourceID is the largest representable source ordinal.
const MaxSourceID = 0x7fff

const skipBit = 0x8000

// NewRowSourceMask builds a mask. Source ordinals above MaxSourceID wrap;
// merge fan-in never approaches that bound in practice.
func NewRowSourceMask(source uint16, skip bool) RowSourceMask {
	data := source & MaxSourceID
	if skip {
		data |= skipBit
	}
	return RowSourceMask{data: data}
}

// SourceID returns the ordinal of the input stream that produced the row.
func (m RowSourceMask) SourceID() uint16 { return m.data & MaxSourceID }

// Skip reports whether downstream stages should discard the row.
func (m RowSourceMask) Skip() bool { return m.data&skipBit != 0 }

// packed returns the wire representation used by MaskBuffer spill frames.
func (m RowSourceMask) packed() uint16 { return m.data }

func maskFromPacked(data uint16) RowSourceMask { return RowSourceMask{data: data} }
