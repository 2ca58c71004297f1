package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/slang/errors"
)

// MaxLength bounds every decoded length prefix. Lengths above it are
// rejected before any allocation.
const MaxLength = 1 << 28

// Archive is a bidirectional binary stream. A value is serialized and
// deserialized through the same call, so one function describes the
// layout for both directions.
type Archive interface {
	IsReading() bool
	IsWriting() bool
	ByteOrder() binary.ByteOrder
	// Position returns the number of bytes consumed or produced so far.
	Position() int

	Uint8(v *uint8) error
	Uint16(v *uint16) error
	Uint32(v *uint32) error
	Uint64(v *uint64) error
	Int32(v *int32) error
	Int64(v *int64) error
	Float32(v *float32) error
	Float64(v *float64) error
	Bool(v *bool) error
	// VarInt transcodes a variable-length signed integer.
	VarInt(v *int64) error
	// String transcodes a length-prefixed UTF-8 string.
	String(v *string) error
	// Bytes transcodes a length-prefixed byte blob.
	Bytes(v *[]byte) error

	// WrapError tags err with a section name and the current position.
	WrapError(section string, err error) error
}

// ParseError carries the position and section of a failed transcode.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("archive: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("archive: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Phase returns the error phase matching the direction of a.
func Phase(a Archive) errors.Phase {
	if a.IsReading() {
		return errors.PhaseDecode
	}
	return errors.PhaseEncode
}

// ByteOrderMarker returns the single-byte marker written at the start of a
// module stream for the given byte order.
func ByteOrderMarker(order binary.ByteOrder) uint8 {
	if order == binary.BigEndian {
		return 1
	}
	return 0
}

// VLE layout: the first byte holds the sign (0x80), a continuation flag
// (0x40) and the six least significant bits. Each following byte holds a
// continuation flag (0x80) and the next seven bits.
const (
	vleSign      = 0x80
	vleFirstMore = 0x40
	vleFirstBits = 0x3f
	vleMore      = 0x80
	vleBits      = 0x7f

	// six bits in the first byte plus nine groups cover 64 bits
	vleMaxTail = 9
)
