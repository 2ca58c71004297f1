package archive

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/wippyai/slang/errors"
)

// Writer is the writing side of an Archive.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	pos   int
	buf   [10]byte
}

// NewWriter creates a Writer over w with a fixed byte order.
func NewWriter(w io.Writer, order binary.ByteOrder) *Writer {
	return &Writer{w: w, order: order}
}

// NewBufferWriter creates a Writer over a fresh in-memory buffer.
func NewBufferWriter(order binary.ByteOrder) (*Writer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWriter(buf, order), buf
}

func (w *Writer) IsReading() bool             { return false }
func (w *Writer) IsWriting() bool             { return true }
func (w *Writer) ByteOrder() binary.ByteOrder { return w.order }

// Position returns the number of bytes written.
func (w *Writer) Position() int {
	return w.pos
}

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.pos += n
	if err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "write failed")
	}
	return nil
}

func (w *Writer) Uint8(v *uint8) error {
	w.buf[0] = *v
	return w.write(w.buf[:1])
}

func (w *Writer) Uint16(v *uint16) error {
	w.order.PutUint16(w.buf[:2], *v)
	return w.write(w.buf[:2])
}

func (w *Writer) Uint32(v *uint32) error {
	w.order.PutUint32(w.buf[:4], *v)
	return w.write(w.buf[:4])
}

func (w *Writer) Uint64(v *uint64) error {
	w.order.PutUint64(w.buf[:8], *v)
	return w.write(w.buf[:8])
}

func (w *Writer) Int32(v *int32) error {
	u := uint32(*v)
	return w.Uint32(&u)
}

func (w *Writer) Int64(v *int64) error {
	u := uint64(*v)
	return w.Uint64(&u)
}

func (w *Writer) Float32(v *float32) error {
	u := math.Float32bits(*v)
	return w.Uint32(&u)
}

func (w *Writer) Float64(v *float64) error {
	u := math.Float64bits(*v)
	return w.Uint64(&u)
}

func (w *Writer) Bool(v *bool) error {
	var b uint8
	if *v {
		b = 1
	}
	return w.Uint8(&b)
}

// VarInt writes a variable-length signed integer, least significant
// group first.
func (w *Writer) VarInt(v *int64) error {
	var b0 byte
	mag := uint64(*v)
	if *v < 0 {
		b0 = vleSign
		mag = -mag
	}

	b0 |= byte(mag & vleFirstBits)
	mag >>= 6
	if mag != 0 {
		b0 |= vleFirstMore
	}

	n := 0
	w.buf[n] = b0
	n++
	for mag != 0 {
		b := byte(mag & vleBits)
		mag >>= 7
		if mag != 0 {
			b |= vleMore
		}
		w.buf[n] = b
		n++
	}
	return w.write(w.buf[:n])
}

func (w *Writer) length(n int) error {
	if n > MaxLength {
		return errors.Overflow(errors.PhaseEncode, nil, n, "length limit")
	}
	v := int64(n)
	return w.VarInt(&v)
}

func (w *Writer) Bytes(v *[]byte) error {
	if err := w.length(len(*v)); err != nil {
		return err
	}
	return w.write(*v)
}

func (w *Writer) String(v *string) error {
	if !utf8.ValidString(*v) {
		return errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(*v))
	}
	if err := w.length(len(*v)); err != nil {
		return err
	}
	_, err := io.WriteString(w.w, *v)
	w.pos += len(*v)
	if err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "write string of length "+strconv.Itoa(len(*v)))
	}
	return nil
}

// WrapError creates a ParseError with the current position.
func (w *Writer) WrapError(section string, err error) error {
	return &ParseError{
		Position: w.pos,
		Section:  section,
		Err:      err,
	}
}
