package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectAPI serves a single in-memory object and counts range requests.
type fakeObjectAPI struct {
	data []byte
	gets int
}

func (f *fakeObjectAPI) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets++
	var start, end int64
	if _, err := fmt.Sscanf(*params.Range, "bytes=%d-%d", &start, &end); err != nil {
		return nil, fmt.Errorf("bad range %q: %w", *params.Range, err)
	}
	if start >= int64(len(f.data)) {
		return nil, fmt.Errorf("range start %d past object end %d", start, len(f.data))
	}
	if end >= int64(len(f.data)) {
		end = int64(len(f.data)) - 1
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.data[start : end+1])),
	}, nil
}

func (f *fakeObjectAPI) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	size := int64(len(f.data))
	return &s3.HeadObjectOutput{ContentLength: &size}, nil
}

func objectBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestS3StreamSequentialReadAhead(t *testing.T) {
	backend := &fakeObjectAPI{data: objectBytes(100)}
	s := NewS3Stream(context.Background(), backend, "bucket", "key", 64)
	defer s.Close()

	// Small sequential reads inside the read-ahead window share one range
	// request.
	p := make([]byte, 10)
	for i := 0; i < 6; i++ {
		n, err := s.Read(p)
		require.NoError(t, err)
		require.Equal(t, 10, n)
		assert.Equal(t, backend.data[i*10:i*10+10], p[:n])
	}
	assert.Equal(t, 1, backend.gets)
	assert.Equal(t, int64(60), s.Position())
}

func TestS3StreamReadAcrossBufferBoundary(t *testing.T) {
	backend := &fakeObjectAPI{data: objectBytes(100)}
	s := NewS3Stream(context.Background(), backend, "bucket", "key", 64)
	defer s.Close()

	var got []byte
	p := make([]byte, 10)
	for len(got) < 100 {
		n, err := s.Read(p)
		require.NoError(t, err)
		require.Greater(t, n, 0)
		got = append(got, p[:n]...)
	}
	assert.Equal(t, backend.data, got)
	assert.Equal(t, 2, backend.gets, "100 bytes through a 64 byte window is two range requests")

	_, err := s.Read(make([]byte, 1))
	assert.Equal(t, io.EOF, err)
}

func TestS3StreamLargeReadBypassesBuffer(t *testing.T) {
	backend := &fakeObjectAPI{data: objectBytes(200)}
	s := NewS3Stream(context.Background(), backend, "bucket", "key", 64)
	defer s.Close()

	p := make([]byte, 128)
	n, err := s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 128, n)
	assert.Equal(t, backend.data[:128], p)
	assert.Equal(t, 1, backend.gets)

	// The bypass left nothing buffered, so the next small read fetches.
	small := make([]byte, 8)
	n, err = s.Read(small)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, backend.data[128:136], small)
	assert.Equal(t, 2, backend.gets)
}

func TestS3StreamNoReadAhead(t *testing.T) {
	backend := &fakeObjectAPI{data: objectBytes(30)}
	s := NewS3Stream(context.Background(), backend, "bucket", "key", 0)
	defer s.Close()

	p := make([]byte, 10)
	for i := 0; i < 3; i++ {
		n, err := s.Read(p)
		require.NoError(t, err)
		require.Equal(t, 10, n)
	}
	assert.Equal(t, 3, backend.gets, "without read-ahead every read is its own request")
}

func TestS3StreamSeekAndPosition(t *testing.T) {
	backend := &fakeObjectAPI{data: objectBytes(100)}
	s := NewS3Stream(context.Background(), backend, "bucket", "key", 16)
	defer s.Close()

	pos, err := s.Seek(40, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(40), pos)

	p := make([]byte, 4)
	_, err = io.ReadFull(s, p)
	require.NoError(t, err)
	assert.Equal(t, backend.data[40:44], p)
	assert.Equal(t, int64(44), s.Position())

	pos, err = s.Seek(-4, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(40), pos)

	// Seeking back inside the buffered window costs no new request.
	before := backend.gets
	_, err = io.ReadFull(s, p)
	require.NoError(t, err)
	assert.Equal(t, backend.data[40:44], p)
	assert.Equal(t, before, backend.gets)

	pos, err = s.Seek(-10, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(90), pos)

	_, err = s.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestS3StreamReadAt(t *testing.T) {
	backend := &fakeObjectAPI{data: objectBytes(100)}
	s := NewS3Stream(context.Background(), backend, "bucket", "key", 16)
	defer s.Close()

	p := make([]byte, 8)
	n, err := s.ReadAt(p, 50)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, backend.data[50:58], p)
	assert.Equal(t, int64(0), s.Position(), "ReadAt must not move the stream position")

	// Short read at the tail reports EOF with the bytes it got.
	n, err = s.ReadAt(p, 96)
	assert.Equal(t, 4, n)
	assert.Equal(t, io.EOF, err)

	_, err = s.ReadAt(p, 200)
	assert.Equal(t, io.EOF, err)
}

func TestS3StreamSize(t *testing.T) {
	backend := &fakeObjectAPI{data: objectBytes(77)}
	s := NewS3Stream(context.Background(), backend, "bucket", "key", 16)
	defer s.Close()

	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(77), size)
}
