package module

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wippyai/slang/archive"
	"github.com/wippyai/slang/errors"
)

// TranscodeVariableType transcodes a type string followed by an optional
// import index.
func TranscodeVariableType(a archive.Archive, v *VariableType) error {
	var s string
	if a.IsWriting() {
		var err error
		if s, err = v.TypeString(); err != nil {
			return err
		}
	}
	if err := a.String(&s); err != nil {
		return err
	}
	if a.IsReading() {
		parsed, err := ParseTypeString(s)
		if err != nil {
			return err
		}
		v.Base, v.Array = parsed.Base, parsed.Array
	}
	return archive.Optional(a, &v.ImportIndex, archive.NeedAny, archive.Length)
}

func transcodeTypes(a archive.Archive, types *[]VariableType) error {
	return archive.Slice(a, types, TranscodeVariableType)
}

// Transcode transcodes a constant table entry: type tag then the value.
func (c *Constant) Transcode(a archive.Archive) error {
	if a.IsWriting() {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if err := archive.Enum(a, &c.Type, lastConstantType, "constant type"); err != nil {
		return err
	}
	switch c.Type {
	case ConstI32:
		var v int32
		if a.IsWriting() {
			v = c.Data.(int32)
		}
		if err := a.Int32(&v); err != nil {
			return err
		}
		c.Data = v
	case ConstF32:
		var v float32
		if a.IsWriting() {
			v = c.Data.(float32)
		}
		if err := a.Float32(&v); err != nil {
			return err
		}
		c.Data = v
	case ConstStr:
		var v string
		if a.IsWriting() {
			v = c.Data.(string)
		}
		if err := a.String(&v); err != nil {
			return err
		}
		c.Data = v
	}
	return nil
}

// Transcode transcodes an import table entry.
func (s *ImportedSymbol) Transcode(a archive.Archive) error {
	if err := archive.Enum(a, &s.Type, lastSymbolType, "symbol type"); err != nil {
		return err
	}
	if err := a.String(&s.Name); err != nil {
		return err
	}
	return a.Uint32(&s.PackageIndex)
}

// Transcode transcodes an export table entry. The payload layout depends
// on the symbol type; package exports carry none.
func (s *ExportedSymbol) Transcode(a archive.Archive) error {
	if err := archive.Enum(a, &s.Type, lastSymbolType, "symbol type"); err != nil {
		return err
	}
	if err := a.String(&s.Name); err != nil {
		return err
	}
	if a.IsWriting() && s.Type != PackageSymbol && (s.Desc == nil || s.Desc.symbolType() != s.Type) {
		return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Symbol(s.Name).
			Detail("%s export with %T payload", s.Type, s.Desc).
			Build()
	}

	switch s.Type {
	case ConstantSymbol:
		var i int
		if a.IsWriting() {
			i = int(s.Desc.(ConstantIndex))
		}
		if err := archive.Length(a, &i); err != nil {
			return err
		}
		s.Desc = ConstantIndex(i)
	case FunctionSymbol:
		d := &FunctionDescriptor{}
		if a.IsWriting() {
			d = s.Desc.(*FunctionDescriptor)
		}
		if err := d.Transcode(a); err != nil {
			return err
		}
		s.Desc = d
	case TypeSymbol:
		d := &StructDescriptor{}
		if a.IsWriting() {
			d = s.Desc.(*StructDescriptor)
		}
		if err := d.Transcode(a); err != nil {
			return err
		}
		s.Desc = d
	case PackageSymbol:
		s.Desc = nil
	}
	return nil
}

// Transcode transcodes a function descriptor: signature, native flag,
// then bytecode location and locals or the native library name.
func (d *FunctionDescriptor) Transcode(a archive.Archive) error {
	if err := TranscodeVariableType(a, &d.Signature.Return); err != nil {
		return err
	}
	if err := transcodeTypes(a, &d.Signature.Args); err != nil {
		return err
	}

	native := d.IsNative()
	if a.IsWriting() && d.Details == nil {
		return errors.InvalidData(errors.PhaseEncode, nil, "function without details")
	}
	if err := a.Bool(&native); err != nil {
		return err
	}

	if native {
		var nd NativeDetails
		if a.IsWriting() {
			nd = d.Details.(NativeDetails)
		}
		if err := a.String(&nd.Library); err != nil {
			return err
		}
		d.Details = nd
		return nil
	}

	var bc BytecodeDetails
	if a.IsWriting() {
		bc = d.Details.(BytecodeDetails)
	}
	if err := archive.Length(a, &bc.Offset); err != nil {
		return err
	}
	if err := archive.Length(a, &bc.Size); err != nil {
		return err
	}
	if err := transcodeTypes(a, &bc.Locals); err != nil {
		return err
	}
	d.Details = bc
	return nil
}

// Transcode transcodes a struct descriptor: flags then members.
func (d *StructDescriptor) Transcode(a archive.Archive) error {
	flags := uint8(d.Flags)
	if err := a.Uint8(&flags); err != nil {
		return err
	}
	if StructFlags(flags)&^structFlagsMask != 0 {
		return errors.InvalidData(archive.Phase(a), []string{"flags"}, fmt.Sprintf("unknown struct flags 0x%02x", flags))
	}
	d.Flags = StructFlags(flags)
	return archive.Slice(a, &d.Members, func(a archive.Archive, m *Member) error {
		if err := a.String(&m.Name); err != nil {
			return err
		}
		return TranscodeVariableType(a, &m.Type)
	})
}

// Transcode transcodes the header: byte order marker, tag, import table,
// export table and constant table.
func (h *Header) Transcode(a archive.Archive) error {
	err := archive.Section(a, "header", func() error {
		marker := archive.ByteOrderMarker(a.ByteOrder())
		want := marker
		if err := a.Uint8(&marker); err != nil {
			return err
		}
		if marker != want {
			return errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Value(marker).
				Detail("byte order marker %d does not match stream byte order %v", marker, a.ByteOrder()).
				Build()
		}

		tag := Tag
		if err := a.Uint32(&tag); err != nil {
			return err
		}
		if tag != Tag {
			return errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Value(tag).
				Detail("not a module: tag 0x%08x", tag).
				Build()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := archive.Section(a, "imports", func() error {
		return archive.Slice(a, &h.Imports, func(a archive.Archive, s *ImportedSymbol) error { return s.Transcode(a) })
	}); err != nil {
		return err
	}
	if err := archive.Section(a, "exports", func() error {
		return archive.Slice(a, &h.Exports, func(a archive.Archive, s *ExportedSymbol) error { return s.Transcode(a) })
	}); err != nil {
		return err
	}
	return archive.Section(a, "constants", func() error {
		return archive.Slice(a, &h.Constants, func(a archive.Archive, c *Constant) error { return c.Transcode(a) })
	})
}

// Transcode transcodes the header followed by the body blob.
func (m *Module) Transcode(a archive.Archive) error {
	if a.IsWriting() {
		if err := m.Header.Validate(); err != nil {
			return err
		}
	}
	if err := m.Header.Transcode(a); err != nil {
		return err
	}
	return archive.Section(a, "body", func() error {
		return a.Bytes(&m.Body)
	})
}

// Encode writes m to w.
func Encode(w io.Writer, m *Module, order binary.ByteOrder) error {
	return m.Transcode(archive.NewWriter(w, order))
}

// Decode reads a module from r.
func Decode(r io.Reader, order binary.ByteOrder) (*Module, error) {
	m := &Module{}
	if err := m.Transcode(archive.NewReader(r, order)); err != nil {
		return nil, err
	}
	return m, nil
}

// MarshalBinary encodes the module in little-endian byte order.
func (m *Module) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m, binary.LittleEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a little-endian module.
func (m *Module) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(bytes.NewReader(data), binary.LittleEndian)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
