//go:build !chunkcheck

package iterator

import (
	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/schema"
)

// checkChunk is compiled out of release builds. A malformed chunk can
// propagate silently here; the validation exists for development and tests
// only.
func checkChunk(_ *chunk.Chunk, _ *schema.Schema, _ error) {}
