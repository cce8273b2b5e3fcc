package stream

import (
	"io"
	"os"

	"github.com/cometdb/comet/pkg/errors"
)

// FileStream reads a local file. Position tracking is the file descriptor's
// own offset; ReadAt does not disturb it.
type FileStream struct {
	f   *os.File
	pos int64
}

var _ InputStream = (*FileStream)(nil)

// OpenFile opens path for reading.
func OpenFile(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "open input file")
	}
	return &FileStream{f: f}, nil
}

func (s *FileStream) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	if err != nil && err != io.EOF {
		return n, errors.Wrap(err, errors.ErrorTypeIO, "read input file")
	}
	return n, err
}

func (s *FileStream) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, errors.Wrap(err, errors.ErrorTypeIO, "read input file at offset")
	}
	return n, err
}

func (s *FileStream) Seek(offset int64, whence int) (int64, error) {
	pos, err := s.f.Seek(offset, whence)
	if err != nil {
		return pos, errors.Wrap(err, errors.ErrorTypeIO, "seek input file")
	}
	s.pos = pos
	return pos, nil
}

func (s *FileStream) Position() int64 { return s.pos }

func (s *FileStream) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeIO, "stat input file")
	}
	return info.Size(), nil
}

func (s *FileStream) Close() error {
	return s.f.Close()
}
