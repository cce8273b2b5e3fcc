//go:build chunkcheck

package iterator

import (
	stderrors "errors"
	"fmt"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/schema"
)

// checkChunk asserts the structural postcondition of a fetch: a successful
// fetch appended at least one row and the chunk's columns match the active
// schema; end of stream left the chunk empty. Compiled only under the
// chunkcheck build tag; a violation is a bug in the iterator, so it halts.
func checkChunk(c *chunk.Chunk, s *schema.Schema, err error) {
	switch {
	case err == nil:
		if c.Empty() {
			panic("iterator: successful fetch returned an empty chunk")
		}
		if !c.Matches(s) {
			panic(fmt.Sprintf("iterator: chunk shape does not match schema (%d columns, want %d)",
				c.NumColumns(), s.NumFields()))
		}
	case stderrors.Is(err, ErrEndOfStream):
		if !c.Empty() {
			panic("iterator: end of stream returned a non-empty chunk")
		}
	}
}
