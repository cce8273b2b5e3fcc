package stream

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cometdb/comet/pkg/errors"
)

// ObjectAPI is the subset of the S3 client the stream needs. Tests substitute
// an in-memory backend.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// DefaultReadAheadSize is the read-ahead buffer size used when none is
// configured. Sequential scans dominate, so one ranged request serves many
// small reads.
const DefaultReadAheadSize = 1 << 20

// S3Stream reads an S3 object through HTTP range requests. Small sequential
// reads are served from a read-ahead buffer; reads at least as large as the
// buffer bypass it.
type S3Stream struct {
	ctx    context.Context
	api    ObjectAPI
	bucket string
	key    string

	offset int64
	size   int64 // -1 until resolved

	readAheadSize int64
	buf           []byte
	bufStart      int64 // object offset of buf[0], -1 when empty
	bufLen        int
}

var _ InputStream = (*S3Stream)(nil)

// NewS3Client builds an S3 client from the ambient AWS configuration.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "load aws configuration")
	}
	return s3.NewFromConfig(cfg), nil
}

// NewS3Stream creates a stream over bucket/key. readAheadSize <= 0 disables
// buffering and every Read issues its own range request.
func NewS3Stream(ctx context.Context, api ObjectAPI, bucket, key string, readAheadSize int64) *S3Stream {
	var buf []byte
	if readAheadSize > 0 {
		buf = make([]byte, readAheadSize)
	}
	return &S3Stream{
		ctx:           ctx,
		api:           api,
		bucket:        bucket,
		key:           key,
		size:          -1,
		readAheadSize: readAheadSize,
		buf:           buf,
		bufStart:      -1,
	}
}

func (s *S3Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	size, err := s.Size()
	if err != nil {
		return 0, err
	}
	if s.offset >= size {
		return 0, io.EOF
	}

	// Sequential fast path: the requested range is already buffered.
	if s.bufStart >= 0 && s.offset >= s.bufStart && s.offset < s.bufStart+int64(s.bufLen) {
		n := copy(p, s.buf[s.offset-s.bufStart:s.bufLen])
		s.offset += int64(n)
		return n, nil
	}

	// Large reads skip the buffer; fetching them twice would waste the
	// range request.
	if s.readAheadSize <= 0 || int64(len(p)) >= s.readAheadSize {
		n, err := s.rangedGet(p, s.offset)
		s.offset += int64(n)
		return n, err
	}

	n, err := s.rangedGet(s.buf, s.offset)
	if err != nil {
		return 0, err
	}
	s.bufStart = s.offset
	s.bufLen = n
	n = copy(p, s.buf[:s.bufLen])
	s.offset += int64(n)
	return n, nil
}

// ReadAt issues a direct range request without touching the read-ahead
// buffer or the stream position.
func (s *S3Stream) ReadAt(p []byte, off int64) (int, error) {
	size, err := s.Size()
	if err != nil {
		return 0, err
	}
	if off >= size {
		return 0, io.EOF
	}
	n, err := s.rangedGet(p, off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *S3Stream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.offset + offset
	case io.SeekEnd:
		size, err := s.Size()
		if err != nil {
			return 0, err
		}
		abs = size + offset
	default:
		return 0, errors.Newf(errors.ErrorTypeValidation, "invalid seek whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.Newf(errors.ErrorTypeValidation, "seek to negative offset %d", abs)
	}
	s.offset = abs
	return abs, nil
}

func (s *S3Stream) Position() int64 { return s.offset }

// Size resolves the object length, caching it after the first call.
func (s *S3Stream) Size() (int64, error) {
	if s.size >= 0 {
		return s.size, nil
	}
	out, err := s.api.HeadObject(s.ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrorTypeIO, "head s3 object %s/%s", s.bucket, s.key)
	}
	if out.ContentLength == nil {
		return 0, errors.Newf(errors.ErrorTypeData, "s3 object %s/%s has no content length", s.bucket, s.key)
	}
	s.size = *out.ContentLength
	return s.size, nil
}

// Close drops the buffer. The S3 client is shared and stays open.
func (s *S3Stream) Close() error {
	s.buf = nil
	s.bufStart = -1
	s.bufLen = 0
	return nil
}

// rangedGet fills p from the object starting at off, clamped to the object's
// end. Returns the byte count read.
func (s *S3Stream) rangedGet(p []byte, off int64) (int, error) {
	end := off + int64(len(p)) - 1
	if last := s.size - 1; s.size >= 0 && end > last {
		end = last
	}
	if end < off {
		return 0, io.EOF
	}

	out, err := s.api.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrorTypeIO, "get s3 object range %s/%s", s.bucket, s.key)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p[:end-off+1])
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	if err != nil {
		return n, errors.Wrapf(err, errors.ErrorTypeIO, "read s3 object body %s/%s", s.bucket, s.key)
	}
	return n, nil
}
