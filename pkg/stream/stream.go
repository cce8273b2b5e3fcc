// Package stream provides seekable byte-range input streams for scan paths:
// a local file implementation and an S3 implementation with read-ahead
// buffering for sequential access patterns.
package stream

import "io"

// InputStream is a seekable, positioned byte source. Implementations are not
// safe for concurrent use; a scan owns its stream.
type InputStream interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer

	// Position returns the offset the next Read will serve from.
	Position() int64

	// Size returns the total length of the underlying object.
	Size() (int64, error)
}
