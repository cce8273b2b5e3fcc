package schema

// GlobalDict is planner-built dictionary metadata for one column: the mapping
// from original string values to fixed-width surrogate codes. Iterators
// consume it read-only; building and versioning dictionaries is the planner's
// job.
type GlobalDict struct {
	// Version distinguishes dictionary generations; a stale version on a
	// segment forces decode-on-read upstream of this layer.
	Version int64
	// Codes maps original values to surrogate codes.
	Codes map[string]int32
}

// Decode returns the original value for a code. Linear in dictionary size;
// meant for diagnostics, not the hot path.
func (d *GlobalDict) Decode(code int32) (string, bool) {
	for v, c := range d.Codes {
		if c == code {
			return v, true
		}
	}
	return "", false
}

// GlobalDictMap maps column ids to their dictionary metadata. Supplied by the
// planner to Iterator.InitEncodedSchema.
type GlobalDictMap map[ColumnID]*GlobalDict
