package iterator

import (
	"encoding/binary"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/cometdb/comet/pkg/compression"
	"github.com/cometdb/comet/pkg/errors"
	"github.com/cometdb/comet/pkg/logger"
)

// MaskBuffer accumulates the row-source mask sequence of a merge's key phase
// so a later value phase can replay it (two-phase columnar compaction). Masks
// beyond a memory threshold spill to a compressed temp file; replay streams
// them back one frame at a time.
//
// Usage: Append during the key phase, Flip once, then Next until exhaustion.
// Close removes the spill file.
type MaskBuffer struct {
	mem      []RowSourceMask
	memLimit int // max in-memory masks before a spill

	spillDir string
	file     *os.File
	comp     compression.Compressor
	spilled  bool

	reading bool
	readPos int

	log *zap.Logger
}

// DefaultMaskMemoryLimit is the default number of masks held in memory
// before spilling.
const DefaultMaskMemoryLimit = 1 << 20

// NewMaskBuffer creates a mask buffer. memLimit caps the in-memory mask
// count (0 means DefaultMaskMemoryLimit); spillDir receives the temp file
// (empty means the OS temp dir); alg selects the spill-frame codec.
func NewMaskBuffer(memLimit int, spillDir string, alg compression.Algorithm) (*MaskBuffer, error) {
	if memLimit <= 0 {
		memLimit = DefaultMaskMemoryLimit
	}
	comp, err := compression.NewCompressor(alg)
	if err != nil {
		return nil, err
	}
	return &MaskBuffer{
		memLimit: memLimit,
		spillDir: spillDir,
		comp:     comp,
		log:      logger.With(zap.String("component", "mask_buffer")),
	}, nil
}

// Append adds masks to the buffer, spilling to disk past the memory limit.
func (b *MaskBuffer) Append(masks []RowSourceMask) error {
	if b.reading {
		return errors.New(errors.ErrorTypeInternal, "mask buffer already flipped to read")
	}
	b.mem = append(b.mem, masks...)
	if len(b.mem) >= b.memLimit {
		return b.spill()
	}
	return nil
}

// Flip switches the buffer from write to read mode. Any in-memory tail of a
// spilled sequence is flushed first so replay order matches append order.
func (b *MaskBuffer) Flip() error {
	if b.reading {
		return nil
	}
	if b.spilled && len(b.mem) > 0 {
		if err := b.spill(); err != nil {
			return err
		}
	}
	if b.spilled {
		if _, err := b.file.Seek(0, io.SeekStart); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "rewind mask spill file")
		}
		b.mem = b.mem[:0]
		if err := b.loadFrame(); err != nil && err != io.EOF {
			return err
		}
	}
	b.reading = true
	b.readPos = 0
	return nil
}

// Next returns the next mask in append order. ok is false once the sequence
// is exhausted.
func (b *MaskBuffer) Next() (mask RowSourceMask, ok bool, err error) {
	if !b.reading {
		return RowSourceMask{}, false, errors.New(errors.ErrorTypeInternal, "mask buffer not flipped to read")
	}
	if b.readPos >= len(b.mem) {
		if !b.spilled {
			return RowSourceMask{}, false, nil
		}
		loadErr := b.loadFrame()
		if loadErr == io.EOF {
			return RowSourceMask{}, false, nil
		}
		if loadErr != nil {
			return RowSourceMask{}, false, loadErr
		}
		b.readPos = 0
	}
	mask = b.mem[b.readPos]
	b.readPos++
	return mask, true, nil
}

// Close releases the spill file, if any.
func (b *MaskBuffer) Close() error {
	b.mem = nil
	if b.file == nil {
		return nil
	}
	name := b.file.Name()
	if err := b.file.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "close mask spill file")
	}
	b.file = nil
	if err := os.Remove(name); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "remove mask spill file")
	}
	return nil
}

// spill writes the in-memory masks as one compressed frame and clears them.
// Frame layout: uint32 compressed length, then the compressed run of
// little-endian uint16 masks.
func (b *MaskBuffer) spill() error {
	if b.file == nil {
		f, err := os.CreateTemp(b.spillDir, "comet-masks-*.spill")
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "create mask spill file")
		}
		b.file = f
		b.log.Debug("mask buffer spilling to disk",
			zap.String("path", f.Name()),
			zap.Int("mem_limit", b.memLimit))
	}

	raw := make([]byte, 2*len(b.mem))
	for i, m := range b.mem {
		binary.LittleEndian.PutUint16(raw[2*i:], m.packed())
	}
	compressed, err := b.comp.Compress(raw)
	if err != nil {
		return err
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(compressed)))
	if _, err := b.file.Write(header[:]); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write mask frame header")
	}
	if _, err := b.file.Write(compressed); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write mask frame")
	}

	b.mem = b.mem[:0]
	b.spilled = true
	return nil
}

// loadFrame replaces the in-memory masks with the next frame from the spill
// file. Returns io.EOF when no frames remain.
func (b *MaskBuffer) loadFrame() error {
	var header [4]byte
	if _, err := io.ReadFull(b.file, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return errors.Wrap(err, errors.ErrorTypeIO, "read mask frame header")
	}
	compressed := make([]byte, binary.LittleEndian.Uint32(header[:]))
	if _, err := io.ReadFull(b.file, compressed); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "read mask frame")
	}
	raw, err := b.comp.Decompress(compressed)
	if err != nil {
		return err
	}
	if len(raw)%2 != 0 {
		return errors.New(errors.ErrorTypeData, "mask frame has odd length")
	}

	b.mem = b.mem[:0]
	for i := 0; i < len(raw); i += 2 {
		b.mem = append(b.mem, maskFromPacked(binary.LittleEndian.Uint16(raw[i:])))
	}
	return nil
}
