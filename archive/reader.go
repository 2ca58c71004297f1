package archive

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/wippyai/slang/errors"
)

// Reader is the reading side of an Archive. It tracks the byte position
// so failures can be reported against an offset.
type Reader struct {
	r     io.Reader
	order binary.ByteOrder
	pos   int
	buf   [8]byte
}

// NewReader creates a Reader over r with a fixed byte order.
func NewReader(r io.Reader, order binary.ByteOrder) *Reader {
	return &Reader{r: r, order: order}
}

func (r *Reader) IsReading() bool             { return true }
func (r *Reader) IsWriting() bool             { return false }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.order }

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

func (r *Reader) read(n int) ([]byte, error) {
	b := r.buf[:n]
	m, err := io.ReadFull(r.r, b)
	r.pos += m
	if err != nil {
		return nil, r.eof(err)
	}
	return b, nil
}

func (r *Reader) eof(err error) error {
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Truncated(nil, err)
	}
	return errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "read failed")
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint8(v *uint8) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	*v = b
	return nil
}

func (r *Reader) Uint16(v *uint16) error {
	b, err := r.read(2)
	if err != nil {
		return err
	}
	*v = r.order.Uint16(b)
	return nil
}

func (r *Reader) Uint32(v *uint32) error {
	b, err := r.read(4)
	if err != nil {
		return err
	}
	*v = r.order.Uint32(b)
	return nil
}

func (r *Reader) Uint64(v *uint64) error {
	b, err := r.read(8)
	if err != nil {
		return err
	}
	*v = r.order.Uint64(b)
	return nil
}

func (r *Reader) Int32(v *int32) error {
	var u uint32
	if err := r.Uint32(&u); err != nil {
		return err
	}
	*v = int32(u)
	return nil
}

func (r *Reader) Int64(v *int64) error {
	var u uint64
	if err := r.Uint64(&u); err != nil {
		return err
	}
	*v = int64(u)
	return nil
}

func (r *Reader) Float32(v *float32) error {
	var u uint32
	if err := r.Uint32(&u); err != nil {
		return err
	}
	*v = math.Float32frombits(u)
	return nil
}

func (r *Reader) Float64(v *float64) error {
	var u uint64
	if err := r.Uint64(&u); err != nil {
		return err
	}
	*v = math.Float64frombits(u)
	return nil
}

func (r *Reader) Bool(v *bool) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		*v = false
	case 1:
		*v = true
	default:
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(b).
			Detail("invalid boolean byte 0x%02x", b).
			Build()
	}
	return nil
}

// VarInt reads a variable-length signed integer.
func (r *Reader) VarInt(v *int64) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	neg := b&vleSign != 0
	mag := uint64(b & vleFirstBits)
	more := b&vleFirstMore != 0
	shift := uint(6)

	for i := 0; more; i++ {
		if i == vleMaxTail {
			return errors.Overflow(errors.PhaseDecode, nil, "continuation past 64 bits", "vle integer")
		}
		b, err = r.ReadByte()
		if err != nil {
			return err
		}
		group := uint64(b & vleBits)
		if shift > 57 && group>>(64-shift) != 0 {
			return errors.Overflow(errors.PhaseDecode, nil, "group "+strconv.Itoa(i), "vle integer")
		}
		mag |= group << shift
		shift += 7
		more = b&vleMore != 0
	}

	if neg {
		if mag > 1<<63 {
			return errors.Overflow(errors.PhaseDecode, nil, mag, "int64")
		}
		*v = -int64(mag)
		return nil
	}
	if mag > math.MaxInt64 {
		return errors.Overflow(errors.PhaseDecode, nil, mag, "int64")
	}
	*v = int64(mag)
	return nil
}

// length reads a VLE length prefix and bounds it.
func (r *Reader) length() (int, error) {
	var n int64
	if err := r.VarInt(&n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.InvalidData(errors.PhaseDecode, nil, "negative length "+strconv.FormatInt(n, 10))
	}
	if n > MaxLength {
		return 0, errors.Overflow(errors.PhaseDecode, nil, n, "length limit")
	}
	return int(n), nil
}

// ReadBytes reads exactly n bytes. The buffer grows with the data actually
// read, so a bogus length on a short stream fails without a large allocation.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	var buf bytes.Buffer
	m, err := io.CopyN(&buf, r.r, int64(n))
	r.pos += int(m)
	if err != nil {
		return nil, r.eof(err)
	}
	return buf.Bytes(), nil
}

func (r *Reader) Bytes(v *[]byte) error {
	n, err := r.length()
	if err != nil {
		return err
	}
	data, err := r.ReadBytes(n)
	if err != nil {
		return err
	}
	*v = data
	return nil
}

func (r *Reader) String(v *string) error {
	var data []byte
	if err := r.Bytes(&data); err != nil {
		return err
	}
	if !utf8.Valid(data) {
		return errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	*v = string(data)
	return nil
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{
		Position: r.pos,
		Section:  section,
		Err:      err,
	}
}
